package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/pkg/config"
)

type derivationSubjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type revisionStore interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	CountByRelatedLVC(ctx context.Context, lvcID string) (int, error)
}

// DerivationService fans one live class out into revision sessions: one LVRC
// row per subject in the registry, offset by a fixed duration after the LVC
// start, preserving the session duration.
type DerivationService struct {
	subjects  derivationSubjectLister
	revisions revisionStore
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.DerivationConfig
}

// NewDerivationService constructs the engine.
func NewDerivationService(subjects derivationSubjectLister, revisions revisionStore, metrics *MetricsService, logger *zap.Logger, cfg config.DerivationConfig) *DerivationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Offset <= 0 {
		cfg.Offset = 36 * time.Hour
	}
	if cfg.InstructorFallback == "" {
		cfg.InstructorFallback = "TBD"
	}
	return &DerivationService{
		subjects:  subjects,
		revisions: revisions,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// DeriveRevisions runs the fan-out for a freshly created LVC. It returns the
// number of revision rows created. Per-subject insert failures are logged and
// skipped; they never fail the fan-out, and callers must not fail the parent
// LVC creation on any error returned from here.
//
// Re-running for an LVC that already has derived rows is a no-op, which keeps
// duplicate client submissions from producing duplicate revision batches.
func (s *DerivationService) DeriveRevisions(ctx context.Context, lvc *models.Schedule) (int, error) {
	start, err := lvc.StartDateTime()
	if err != nil {
		return 0, fmt.Errorf("derive revisions: %w", err)
	}
	duration, err := lvc.Duration()
	if err != nil {
		return 0, fmt.Errorf("derive revisions: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("derive revisions: non-positive duration for schedule %s", lvc.ID)
	}

	existing, err := s.revisions.CountByRelatedLVC(ctx, lvc.ID)
	if err != nil {
		return 0, fmt.Errorf("derive revisions: %w", err)
	}
	if existing > 0 {
		s.logger.Info("revision batch already exists, skipping derivation",
			zap.String("lvc_id", lvc.ID),
			zap.Int("existing_rows", existing))
		return 0, nil
	}

	// Plain wall-clock addition; day, month and year boundaries roll over
	// naturally. A derived end past midnight is emitted as computed.
	derivedStart := start.Add(s.cfg.Offset)
	derivedEnd := derivedStart.Add(duration)

	scheduledDate := derivedStart.Format(models.DateLayout)
	startTime := derivedStart.Format(models.TimeLayout)
	endTime := derivedEnd.Format(models.TimeLayout)

	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("derive revisions: %w", err)
	}

	instructor := lvc.InstructorName
	if instructor == "" {
		instructor = s.cfg.InstructorFallback
	}
	description := fmt.Sprintf("Revision session for %s", lvc.Title)

	created := 0
	for _, subject := range subjects {
		lvcID := lvc.ID
		revision := models.Schedule{
			SubjectID:      subject.ID,
			Title:          lvc.Title + " - Revision",
			Description:    &description,
			ScheduledDate:  scheduledDate,
			StartTime:      startTime,
			EndTime:        endTime,
			InstructorName: instructor,
			MeetingLink:    lvc.MeetingLink,
			Capacity:       lvc.Capacity,
			RelatedLVCID:   &lvcID,
			ScheduleType:   models.ScheduleTypeLVRC,
		}
		if err := s.revisions.Create(ctx, &revision); err != nil {
			s.metrics.RecordDerivationInsert(false)
			s.logger.Warn("revision insert failed, continuing fan-out",
				zap.String("lvc_id", lvc.ID),
				zap.String("subject_id", subject.ID),
				zap.Error(err))
			continue
		}
		s.metrics.RecordDerivationInsert(true)
		created++
	}

	s.logger.Info("revision fan-out complete",
		zap.String("lvc_id", lvc.ID),
		zap.Int("subjects", len(subjects)),
		zap.Int("created", created))
	return created, nil
}
