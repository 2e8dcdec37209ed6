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

const feedbackColumns = `id, schedule_id, schedule_type, student_id, student_name, student_email, lecture_date, session, subject, instructor, topic, content_rating, instructor_rating, comments, created_at`

// FeedbackRepository persists student feedback submissions.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs the repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores a feedback record. Records are insert-only; there is no
// update path because a matched submission never re-links.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO feedback (id, schedule_id, schedule_type, student_id, student_name, student_email, lecture_date, session, subject, instructor, topic, content_rating, instructor_rating, comments, created_at)
VALUES (:id, :schedule_id, :schedule_type, :student_id, :student_name, :student_email, :lecture_date, :session, :subject, :instructor, :topic, :content_rating, :instructor_rating, :comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// FindByID loads a feedback record by id.
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE id = $1`, feedbackColumns)
	var feedback models.Feedback
	if err := r.db.GetContext(ctx, &feedback, query, id); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// List returns feedback records with optional filtering and pagination.
func (r *FeedbackRepository) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	base := "FROM feedback WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ScheduleType != "" {
		conditions = append(conditions, fmt.Sprintf("schedule_type = $%d", len(args)+1))
		args = append(args, filter.ScheduleType)
	}
	if filter.LectureDate != "" {
		conditions = append(conditions, fmt.Sprintf("lecture_date = $%d", len(args)+1))
		args = append(args, filter.LectureDate)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", feedbackColumns, base, size, offset)
	var records []models.Feedback
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	return records, total, nil
}
