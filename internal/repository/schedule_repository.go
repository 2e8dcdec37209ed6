package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edcetra/backoffice-api/internal/models"
)

// scheduleTables maps a schedule type to its backing table. LVC and LVRC
// rows share one shape but live in two parallel tables.
var scheduleTables = map[models.ScheduleType]string{
	models.ScheduleTypeLVC:  "lvc_schedules",
	models.ScheduleTypeLVRC: "lvrc_schedules",
}

// scheduleColumns is the select list shared by every read. Subject display
// names come from a LEFT JOIN so rows survive a deleted subject.
const scheduleColumns = `t.id, t.subject_id, COALESCE(s.name, 'Unknown Subject') AS subject_name, t.title, t.description, t.scheduled_date, t.start_time, t.end_time, t.instructor_name, t.meeting_link, t.capacity, t.related_lvc_schedule_id, t.created_at, t.updated_at`

// ScheduleRepository provides persistence for one schedule table.
type ScheduleRepository struct {
	db           *sqlx.DB
	table        string
	scheduleType models.ScheduleType
}

// NewScheduleRepository creates a repository bound to the table for the given type.
func NewScheduleRepository(db *sqlx.DB, scheduleType models.ScheduleType) *ScheduleRepository {
	return &ScheduleRepository{db: db, table: scheduleTables[scheduleType], scheduleType: scheduleType}
}

// Type returns the schedule type this repository serves.
func (r *ScheduleRepository) Type() models.ScheduleType {
	return r.scheduleType
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO %s (id, subject_id, title, description, scheduled_date, start_time, end_time, instructor_name, meeting_link, capacity, related_lvc_schedule_id, created_at, updated_at)
VALUES (:id, :subject_id, :title, :description, :scheduled_date, :start_time, :end_time, :instructor_name, :meeting_link, :capacity, :related_lvc_schedule_id, :created_at, :updated_at)`, r.table)
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create %s schedule: %w", r.scheduleType, err)
	}
	return nil
}

// FindByID loads a schedule by id with its subject display name.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s t LEFT JOIN subjects s ON s.id = t.subject_id WHERE t.id = $1`, scheduleColumns, r.table)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	sched.ScheduleType = r.scheduleType
	return &sched, nil
}

// List returns schedules with optional filtering and pagination.
// The default ordering is (scheduled_date, start_time) descending, the
// management-view convention; pass SortOrder "asc" for subject views.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := fmt.Sprintf("FROM %s t LEFT JOIN subjects s ON s.id = t.subject_id WHERE 1=1", r.table)
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("t.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("t.scheduled_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("t.scheduled_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY t.scheduled_date %s, t.start_time %s LIMIT %d OFFSET %d", scheduleColumns, base, order, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s schedules: %w", r.scheduleType, err)
	}
	for i := range schedules {
		schedules[i].ScheduleType = r.scheduleType
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s schedules: %w", r.scheduleType, err)
	}

	return schedules, total, nil
}

// ListBySubject returns a subject's schedules ordered ascending by date and start.
func (r *ScheduleRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s t LEFT JOIN subjects s ON s.id = t.subject_id WHERE t.subject_id = $1 ORDER BY t.scheduled_date ASC, t.start_time ASC`, scheduleColumns, r.table)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, subjectID); err != nil {
		return nil, fmt.Errorf("list %s schedules by subject: %w", r.scheduleType, err)
	}
	for i := range schedules {
		schedules[i].ScheduleType = r.scheduleType
	}
	return schedules, nil
}

// ListByDate returns all schedules on a calendar date ordered ascending by
// start time. The feedback matcher relies on this ordering for its
// deterministic tie-break.
func (r *ScheduleRepository) ListByDate(ctx context.Context, date string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s t LEFT JOIN subjects s ON s.id = t.subject_id WHERE t.scheduled_date = $1 ORDER BY t.start_time ASC`, scheduleColumns, r.table)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, date); err != nil {
		return nil, fmt.Errorf("list %s schedules by date: %w", r.scheduleType, err)
	}
	for i := range schedules {
		schedules[i].ScheduleType = r.scheduleType
	}
	return schedules, nil
}

// CountByRelatedLVC counts LVRC rows derived from the given LVC id. Used as
// the derivation idempotency guard.
func (r *ScheduleRepository) CountByRelatedLVC(ctx context.Context, lvcID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE related_lvc_schedule_id = $1`, r.table)
	var count int
	if err := r.db.GetContext(ctx, &count, query, lvcID); err != nil {
		return 0, fmt.Errorf("count %s schedules by related lvc: %w", r.scheduleType, err)
	}
	return count, nil
}

// UpdateScheduleParams defines the mutable schedule fields.
type UpdateScheduleParams struct {
	SubjectID      *string
	Title          *string
	Description    *string
	ScheduledDate  *string
	StartTime      *string
	EndTime        *string
	InstructorName *string
	MeetingLink    *string
	Capacity       *int
}

// Update applies the provided changes and reports the affected row count.
func (r *ScheduleRepository) Update(ctx context.Context, id string, params UpdateScheduleParams) (int64, error) {
	set := make([]string, 0, 9)
	args := make([]interface{}, 0, 10)

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if params.SubjectID != nil {
		add("subject_id", *params.SubjectID)
	}
	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.ScheduledDate != nil {
		add("scheduled_date", *params.ScheduledDate)
	}
	if params.StartTime != nil {
		add("start_time", *params.StartTime)
	}
	if params.EndTime != nil {
		add("end_time", *params.EndTime)
	}
	if params.InstructorName != nil {
		add("instructor_name", *params.InstructorName)
	}
	if params.MeetingLink != nil {
		add("meeting_link", *params.MeetingLink)
	}
	if params.Capacity != nil {
		add("capacity", *params.Capacity)
	}

	if len(set) == 0 {
		return 0, nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", r.table, strings.Join(set, ", "), len(args)+1)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s schedule: %w", r.scheduleType, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s schedule rows affected: %w", r.scheduleType, err)
	}
	return affected, nil
}

// Delete removes a schedule by id and reports the affected row count.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return 0, fmt.Errorf("delete %s schedule: %w", r.scheduleType, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s schedule rows affected: %w", r.scheduleType, err)
	}
	return affected, nil
}

// DeleteBySubjectTx removes all of a subject's schedules inside an existing
// transaction. Used by the subject cascade delete.
func (r *ScheduleRepository) DeleteBySubjectTx(ctx context.Context, tx *sqlx.Tx, subjectID string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE subject_id = $1`, r.table), subjectID); err != nil {
		return fmt.Errorf("delete %s schedules by subject: %w", r.scheduleType, err)
	}
	return nil
}
