// Command derivation_audit verifies that every live class has a complete
// fan-out of derived revision rows, one per registered subject. Run it
// against production after bulk imports or manual row surgery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type lvcRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	ScheduledDate string `db:"scheduled_date"`
	StartTime     string `db:"start_time"`
	Derived       int    `db:"derived"`
}

func main() {
	var (
		dsn     string
		since   string
		timeout time.Duration
	)

	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.StringVar(&since, "since", "", "Only audit live classes scheduled on or after this date (YYYY-MM-DD)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no DSN: pass -dsn or set DATABASE_URL")
	}
	if since != "" {
		if _, err := time.Parse("2006-01-02", since); err != nil {
			log.Fatalf("invalid -since date: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	var subjects int
	if err := db.GetContext(ctx, &subjects, `SELECT COUNT(*) FROM subjects`); err != nil {
		log.Fatalf("failed to count subjects: %v", err)
	}

	rows, err := loadAudit(ctx, db, since)
	if err != nil {
		log.Fatalf("failed to load audit rows: %v", err)
	}

	incomplete := printReport(rows, subjects)
	fmt.Printf("Audited %d live classes against %d subjects, %d incomplete\n", len(rows), subjects, incomplete)
	if incomplete > 0 {
		os.Exit(1)
	}
}

func loadAudit(ctx context.Context, db *sqlx.DB, since string) ([]lvcRow, error) {
	query := `SELECT c.id, c.title, c.scheduled_date, c.start_time,
	(SELECT COUNT(*) FROM lvrc_schedules r WHERE r.related_lvc_schedule_id = c.id) AS derived
FROM lvc_schedules c`
	var args []interface{}
	if since != "" {
		query += ` WHERE c.scheduled_date >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY c.scheduled_date ASC, c.start_time ASC`

	var rows []lvcRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func printReport(rows []lvcRow, subjects int) int {
	fmt.Println("Derivation Audit Report")
	fmt.Println("=======================")
	incomplete := 0
	for _, row := range rows {
		status := "OK"
		if row.Derived < subjects {
			status = "INCOMPLETE"
			incomplete++
		}
		fmt.Printf("[%s] %s %s %q\n", status, row.ScheduledDate, row.StartTime, row.Title)
		fmt.Printf("  Derived rows: %d/%d (lvc id %s)\n", row.Derived, subjects, row.ID)
	}
	return incomplete
}
