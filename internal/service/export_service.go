package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/repository"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
	"github.com/edcetra/backoffice-api/pkg/export"
	"github.com/edcetra/backoffice-api/pkg/jobs"
	"github.com/edcetra/backoffice-api/pkg/storage"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type exportScheduleSource interface {
	Type() models.ScheduleType
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
}

// CreateExportRequest is the payload for requesting a schedule sheet.
type CreateExportRequest struct {
	ScheduleType string `json:"schedule_type" validate:"required,oneof=lvc lvrc"`
	DateFrom     string `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo       string `json:"date_to" validate:"required,datetime=2006-01-02"`
	Format       string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportDownload bundles an open file handle with its metadata.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   models.ExportFormat
}

// ExportService generates schedule sheets asynchronously and serves the
// resulting files through signed URLs.
type ExportService struct {
	repo      exportJobRepository
	schedules map[models.ScheduleType]exportScheduleSource
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the export pipeline.
func NewExportService(
	repo exportJobRepository,
	lvc exportScheduleSource,
	lvrc exportScheduleSource,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExportService{
		repo: repo,
		schedules: map[models.ScheduleType]exportScheduleSource{
			models.ScheduleTypeLVC:  lvc,
			models.ScheduleTypeLVRC: lvrc,
		},
		storage:   store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// AttachQueue wires the background queue the service enqueues jobs onto.
func (s *ExportService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// CreateJob validates the request, persists the job row and enqueues it.
func (s *ExportService) CreateJob(ctx context.Context, createdBy string, req CreateExportRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if req.DateTo < req.DateFrom {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must not be before date_from")
	}

	scheduleType, err := models.ParseScheduleType(req.ScheduleType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule type")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			ScheduleType: scheduleType,
			DateFrom:     req.DateFrom,
			DateTo:       req.DateTo,
			Format:       models.ExportFormat(req.Format),
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "schedule_export"}); err != nil {
		s.markFailed(ctx, job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	s.logger.Info("export job queued",
		zap.String("job_id", job.ID),
		zap.String("schedule_type", string(scheduleType)),
		zap.String("format", req.Format))

	return job, nil
}

// GetStatus returns job state visible to the requesting user.
func (s *ExportService) GetStatus(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// Handle processes one queued export job. Wired as the queue handler.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}
	if record.Status == models.ExportStatusFinished {
		return nil
	}

	processing := models.ExportStatusProcessing
	if err := s.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		s.logger.Warn("failed to mark export job processing", zap.String("job_id", record.ID), zap.Error(err))
	}

	filename, err := s.generate(ctx, record)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return fmt.Errorf("generate export %s: %w", record.ID, err)
	}

	token, _, err := s.signer.Generate(record.ID, filename)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return fmt.Errorf("sign export url %s: %w", record.ID, err)
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	resultURL := fmt.Sprintf("/api/v1/exports/download/%s", token)
	if err := s.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalize export job %s: %w", record.ID, err)
	}

	s.logger.Info("export job finished", zap.String("job_id", record.ID), zap.String("file", filename))
	return nil
}

// ResolveDownload validates a signed token and opens the underlying file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export is not ready")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}

	return &ExportDownload{File: file, Filename: relPath, Format: job.Params.Format}, nil
}

// RecoverQueuedJobs re-enqueues jobs left in QUEUED state by a restart.
func (s *ExportService) RecoverQueuedJobs(ctx context.Context) error {
	queued, err := s.repo.ListQueued(ctx, 100)
	if err != nil {
		return fmt.Errorf("recover queued exports: %w", err)
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "schedule_export"}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(queued) > 0 {
		s.logger.Info("requeued pending export jobs", zap.Int("count", len(queued)))
	}
	return nil
}

// StartCleanup deletes export files past their signed URL TTL at the given
// interval until the context is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.storage.CleanupOlderThan(ttl)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("expired export files removed", zap.Int("count", len(deleted)))
				}
				s.expireStaleJobs(ctx, ttl)
			}
		}
	}()
}

// expireStaleJobs flips finished jobs past the signed URL TTL to EXPIRED
// and drops their dead download links.
func (s *ExportService) expireStaleJobs(ctx context.Context, ttl time.Duration) {
	stale, err := s.repo.ListFinishedBefore(ctx, time.Now().UTC().Add(-ttl), 100)
	if err != nil {
		s.logger.Warn("failed to list stale export jobs", zap.Error(err))
		return
	}
	expired := models.ExportStatusExpired
	empty := ""
	for _, job := range stale {
		if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:    &expired,
			ResultURL: &empty,
		}); err != nil {
			s.logger.Warn("failed to expire export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	source, ok := s.schedules[job.Params.ScheduleType]
	if !ok {
		return "", fmt.Errorf("no schedule source for type %q", job.Params.ScheduleType)
	}

	schedules, _, err := source.List(ctx, models.ScheduleFilter{
		DateFrom:  job.Params.DateFrom,
		DateTo:    job.Params.DateTo,
		SortOrder: "asc",
		Page:      1,
		PageSize:  1000,
	})
	if err != nil {
		return "", fmt.Errorf("load schedules: %w", err)
	}

	sheet := buildScheduleSheet(schedules)

	var data []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		data, err = s.csv.Render(sheet)
	case models.ExportFormatPDF:
		title := fmt.Sprintf("%s schedule %s to %s", job.Params.ScheduleType, job.Params.DateFrom, job.Params.DateTo)
		data, err = s.pdf.Render(sheet, title)
	default:
		return "", fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	if err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.%s", job.Params.ScheduleType, job.Params.DateFrom, job.ID, job.Params.Format)
	return s.storage.Save(filename, data)
}

func (s *ExportService) markFailed(ctx context.Context, jobID string, cause error) {
	failed := models.ExportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func buildScheduleSheet(schedules []models.Schedule) export.Sheet {
	headers := []string{"Date", "Start", "End", "Subject", "Title", "Instructor", "Capacity"}
	rows := make([]map[string]string, 0, len(schedules))
	for _, schedule := range schedules {
		rows = append(rows, map[string]string{
			"Date":       schedule.ScheduledDate,
			"Start":      schedule.StartTime,
			"End":        schedule.EndTime,
			"Subject":    schedule.SubjectName,
			"Title":      schedule.Title,
			"Instructor": schedule.InstructorName,
			"Capacity":   fmt.Sprintf("%d", schedule.Capacity),
		})
	}
	return export.Sheet{Headers: headers, Rows: rows}
}
