package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcetra/backoffice-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "subject_id", "subject_name", "title", "description", "scheduled_date",
		"start_time", "end_time", "instructor_name", "meeting_link", "capacity",
		"related_lvc_schedule_id", "created_at", "updated_at",
	})
}

func TestScheduleRepositoryTableSelection(t *testing.T) {
	db, _, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	lvc := NewScheduleRepository(db, models.ScheduleTypeLVC)
	lvrc := NewScheduleRepository(db, models.ScheduleTypeLVRC)

	assert.Equal(t, models.ScheduleTypeLVC, lvc.Type())
	assert.Equal(t, models.ScheduleTypeLVRC, lvrc.Type())
	assert.Equal(t, "lvc_schedules", lvc.table)
	assert.Equal(t, "lvrc_schedules", lvrc.table)
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	mock.ExpectExec("INSERT INTO lvc_schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{
		SubjectID:      "s1",
		Title:          "Thermodynamics",
		ScheduledDate:  "2026-02-15",
		StartTime:      "10:00",
		EndTime:        "11:00",
		InstructorName: "Dr. Rahma",
	}
	require.NoError(t, repo.Create(context.Background(), schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByIDJoinsSubjectName(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	rows := scheduleColumnsRows().
		AddRow("sch-1", "s1", "Physics", "Lecture", nil, "2026-02-15", "10:00", "11:00", "Dr. Rahma", nil, 100, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(s.name, 'Unknown Subject') AS subject_name")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, "Physics", schedule.SubjectName)
	assert.Equal(t, models.ScheduleTypeLVC, schedule.ScheduleType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVRC)

	rows := scheduleColumnsRows().
		AddRow("sch-1", "s1", "Physics", "Lecture - Revision", nil, "2026-02-16", "22:00", "23:00", "Dr. Rahma", nil, 100, "lvc-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM lvrc_schedules t LEFT JOIN subjects s ON s.id = t.subject_id WHERE 1=1 AND t.subject_id = $1 AND t.scheduled_date >= $2 AND t.scheduled_date <= $3 ORDER BY t.scheduled_date ASC, t.start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs("s1", "2026-02-01", "2026-02-28").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lvrc_schedules")).
		WithArgs("s1", "2026-02-01", "2026-02-28").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{
		SubjectID: "s1",
		DateFrom:  "2026-02-01",
		DateTo:    "2026-02-28",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, 1, total)
	require.NotNil(t, schedules[0].RelatedLVCID)
	assert.Equal(t, "lvc-1", *schedules[0].RelatedLVCID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListByDateOrdersByStartTime(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	rows := scheduleColumnsRows().
		AddRow("early", "s1", "Physics", "First", nil, "2026-03-10", "08:00", "09:00", "A", nil, 0, nil, time.Now(), time.Now()).
		AddRow("late", "s1", "Physics", "Second", nil, "2026-03-10", "10:30", "11:30", "B", nil, 0, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.scheduled_date = $1 ORDER BY t.start_time ASC")).
		WithArgs("2026-03-10").
		WillReturnRows(rows)

	schedules, err := repo.ListByDate(context.Background(), "2026-03-10")
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, "early", schedules[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCountByRelatedLVC(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVRC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lvrc_schedules WHERE related_lvc_schedule_id = $1")).
		WithArgs("lvc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByRelatedLVC(context.Background(), "lvc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lvc_schedules SET title = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("New title", sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	title := "New title"
	affected, err := repo.Update(context.Background(), "sch-1", UpdateScheduleParams{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	affected, err := repo.Update(context.Background(), "sch-1", UpdateScheduleParams{})
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, models.ScheduleTypeLVC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lvc_schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
