package plan

import (
	"context"
	"errors"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/adapter"
	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func optimalFleet(now time.Time) []domain.Train {
	return []domain.Train{
		{
			ID: "t1", Code: "TS-01",
			Fitness:     domain.Fitness{Valid: true, Expiry: now.Add(60 * 24 * time.Hour)},
			Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.Add(30 * 24 * time.Hour)},
			Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
			Operational: domain.Operational{CurrentMileage: 5000, AvailableForService: true},
			Branding:    domain.Branding{HasBranding: true, Priority: 3},
		},
		{
			ID: "t2", Code: "TS-02",
			Fitness:     domain.Fitness{Valid: true, Expiry: now.Add(60 * 24 * time.Hour)},
			Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.Add(30 * 24 * time.Hour)},
			Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
			Operational: domain.Operational{CurrentMileage: 5200, AvailableForService: true},
			Branding:    domain.Branding{Priority: 1},
		},
		{
			ID: "t3", Code: "TS-03",
			Fitness:     domain.Fitness{Valid: true, Expiry: now.Add(60 * 24 * time.Hour)},
			Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.Add(30 * 24 * time.Hour)},
			Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
			Operational: domain.Operational{CurrentMileage: 4800, AvailableForService: true},
			Branding:    domain.Branding{HasBranding: true, Priority: 5},
		},
	}
}

func newTestService(now time.Time, trains []domain.Train) (*Service, repository.TrainRepository, repository.PlanRepository) {
	trainRepo := repository.NewMemoryTrainRepository()
	for _, t := range trains {
		_, _ = trainRepo.Upsert(context.Background(), t)
	}
	planRepo := repository.NewMemoryPlanRepository()
	a := adapter.New(adapter.Config{}, testLogger())
	svc := New(trainRepo, planRepo, a, nil, testLogger(), fixedClock(now))
	return svc, trainRepo, planRepo
}

func TestService_Generate_RanksByBrandingThenMileage(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	result, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	require.NoError(t, err)

	require.Len(t, result.Plan.RankedTrains, 3)
	assert.Equal(t, "TS-03", result.Plan.RankedTrains[0].TrainCode)
	assert.Equal(t, "TS-01", result.Plan.RankedTrains[1].TrainCode)
	assert.Equal(t, "TS-02", result.Plan.RankedTrains[2].TrainCode)
	assert.Equal(t, 0, result.Summary.CriticalAlerts)
	assert.Equal(t, domain.FallbackAlgorithm, result.Plan.AIModelInfo.Algorithm)
}

func TestService_Generate_ConflictWithoutForce(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	_, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	var conflict *ErrPlanConflict
	require.True(t, errors.As(err, &conflict))
	assert.NotEmpty(t, conflict.Existing.ID)
}

func TestService_Generate_ForceRegenerateAppendsHistory(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	_, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), now, true, "supervisor-1", nil)
	require.NoError(t, err)

	plans, total, err := svc.History(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, plans, 2)
	assert.True(t, plans[0].GeneratedAt.After(plans[1].GeneratedAt) || plans[0].GeneratedAt.Equal(plans[1].GeneratedAt))
}

func TestService_Generate_EmptyFleet(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, nil)

	_, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	assert.ErrorIs(t, err, ErrNoTrainsAvailable)
}

func TestService_Latest_NotFoundWhenNoPlans(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	_, err := svc.Latest(context.Background())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_Explain_ReturnsDetailedAnalysisForLiveTrains(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	result, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	require.NoError(t, err)

	explain, err := svc.Explain(context.Background(), result.Plan.ID)
	require.NoError(t, err)
	require.Len(t, explain.Explanations, 3)
	for _, exp := range explain.Explanations {
		require.NotNil(t, exp.DetailedAnalysis)
		assert.True(t, exp.DetailedAnalysis.FitnessValid)
	}
}

func TestService_Simulate_DoesNotPersist(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	_, err := svc.Generate(context.Background(), now, false, "supervisor-1", nil)
	require.NoError(t, err)

	priority := 5
	hasBranding := true
	_, err = svc.Simulate(context.Background(), "TS-02", domain.Modifications{
		Branding: &domain.BrandingOverlay{HasBranding: &hasBranding, Priority: &priority},
	}, nil, nil)
	require.NoError(t, err)

	plans, total, err := svc.History(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, plans, 1)
}

func TestService_Simulate_TargetNotFound(t *testing.T) {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(now, optimalFleet(now))

	_, err := svc.Simulate(context.Background(), "TS-99", domain.Modifications{}, nil, nil)
	require.Error(t, err)
}
