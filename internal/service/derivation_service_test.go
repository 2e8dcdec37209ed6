package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/pkg/config"
)

type mockSubjectLister struct {
	subjects []models.Subject
	err      error
}

func (m *mockSubjectLister) ListAll(ctx context.Context) ([]models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.subjects, nil
}

type mockRevisionStore struct {
	created  []models.Schedule
	failFor  map[string]error
	existing int
	countErr error
}

func (m *mockRevisionStore) Create(ctx context.Context, schedule *models.Schedule) error {
	if err, ok := m.failFor[schedule.SubjectID]; ok {
		return err
	}
	cp := *schedule
	m.created = append(m.created, cp)
	return nil
}

func (m *mockRevisionStore) CountByRelatedLVC(ctx context.Context, lvcID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.existing, nil
}

func subjectFixtures(ids ...string) []models.Subject {
	subjects := make([]models.Subject, 0, len(ids))
	for _, id := range ids {
		subjects = append(subjects, models.Subject{ID: id, Name: "Subject " + id})
	}
	return subjects
}

func lvcFixture() *models.Schedule {
	return &models.Schedule{
		ID:             "lvc-1",
		SubjectID:      "s1",
		Title:          "Thermodynamics",
		ScheduledDate:  "2026-02-15",
		StartTime:      "10:00",
		EndTime:        "11:00",
		InstructorName: "Dr. Rahma",
		Capacity:       100,
	}
}

func TestDeriveRevisionsFanOut(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1", "s2", "s3")}
	store := &mockRevisionStore{}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{})

	created, err := svc.DeriveRevisions(context.Background(), lvcFixture())
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	require.Len(t, store.created, 3)

	for _, revision := range store.created {
		assert.Equal(t, "2026-02-16", revision.ScheduledDate)
		assert.Equal(t, "22:00", revision.StartTime)
		assert.Equal(t, "23:00", revision.EndTime)
		assert.Equal(t, "Thermodynamics - Revision", revision.Title)
		assert.Equal(t, "Dr. Rahma", revision.InstructorName)
		require.NotNil(t, revision.RelatedLVCID)
		assert.Equal(t, "lvc-1", *revision.RelatedLVCID)
	}

	seen := map[string]bool{}
	for _, revision := range store.created {
		seen[revision.SubjectID] = true
	}
	assert.Len(t, seen, 3)
}

func TestDeriveRevisionsPartialFailure(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1", "s2", "s3", "s4", "s5")}
	store := &mockRevisionStore{failFor: map[string]error{"s3": errors.New("insert failed")}}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{})

	created, err := svc.DeriveRevisions(context.Background(), lvcFixture())
	require.NoError(t, err)
	assert.Equal(t, 4, created)
	assert.Len(t, store.created, 4)
	for _, revision := range store.created {
		assert.NotEqual(t, "s3", revision.SubjectID)
	}
}

func TestDeriveRevisionsIdempotent(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1", "s2")}
	store := &mockRevisionStore{existing: 2}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{})

	created, err := svc.DeriveRevisions(context.Background(), lvcFixture())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, store.created)
}

func TestDeriveRevisionsRejectsNonPositiveDuration(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1")}
	store := &mockRevisionStore{}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{})

	lvc := lvcFixture()
	lvc.EndTime = "10:00"

	_, err := svc.DeriveRevisions(context.Background(), lvc)
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestDeriveRevisionsOvernightRollover(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1")}
	store := &mockRevisionStore{}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{})

	lvc := lvcFixture()
	lvc.ScheduledDate = "2026-03-31"
	lvc.StartTime = "13:00"
	lvc.EndTime = "14:00"

	created, err := svc.DeriveRevisions(context.Background(), lvc)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	assert.Equal(t, "2026-04-02", store.created[0].ScheduledDate)
	assert.Equal(t, "01:00", store.created[0].StartTime)
	assert.Equal(t, "02:00", store.created[0].EndTime)
}

func TestDeriveRevisionsInstructorFallback(t *testing.T) {
	subjects := &mockSubjectLister{subjects: subjectFixtures("s1")}
	store := &mockRevisionStore{}
	svc := NewDerivationService(subjects, store, nil, zap.NewNop(), config.DerivationConfig{InstructorFallback: "TBD"})

	lvc := lvcFixture()
	lvc.InstructorName = ""

	created, err := svc.DeriveRevisions(context.Background(), lvc)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	assert.Equal(t, "TBD", store.created[0].InstructorName)
}
