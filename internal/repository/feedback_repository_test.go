package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcetra/backoffice-api/internal/models"
)

func feedbackRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "schedule_id", "schedule_type", "student_id", "student_name", "student_email",
		"lecture_date", "session", "subject", "instructor", "topic",
		"content_rating", "instructor_rating", "comments", "created_at",
	})
}

func TestFeedbackRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").WillReturnResult(sqlmock.NewResult(1, 1))

	feedback := &models.Feedback{
		ScheduleID:       "sch-1",
		ScheduleType:     models.ScheduleTypeLVC,
		StudentID:        "stu-1",
		LectureDate:      "2026-02-15",
		Session:          models.SessionMorning,
		Subject:          "Physics",
		Instructor:       "Dr. Rahma",
		Topic:            "Thermodynamics",
		ContentRating:    4,
		InstructorRating: 5,
	}
	require.NoError(t, repo.Create(context.Background(), feedback))
	assert.NotEmpty(t, feedback.ID)
	assert.False(t, feedback.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	rows := feedbackRows().
		AddRow("f1", "sch-1", "lvc", "stu-1", nil, nil, "2026-02-15", "morning", "Physics", "Dr. Rahma", "Thermodynamics", 4, 5, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM feedback WHERE 1=1 AND schedule_type = $1 AND lecture_date = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("lvc", "2026-02-15").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback")).
		WithArgs("lvc", "2026-02-15").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.FeedbackFilter{
		ScheduleType: "lvc",
		LectureDate:  "2026-02-15",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.SessionMorning, records[0].Session)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryListPagination(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 10 OFFSET 20")).
		WillReturnRows(feedbackRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	records, total, err := repo.List(context.Background(), models.FeedbackFilter{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 25, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
