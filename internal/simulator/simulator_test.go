package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/domain"
)

func serviceReadyTrain(code string, mileage int, now time.Time) domain.Train {
	return domain.Train{
		ID:          code,
		Code:        code,
		Fitness:     domain.Fitness{Valid: true, Expiry: now.AddDate(0, 6, 0)},
		Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.AddDate(0, 1, 0)},
		Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
		Operational: domain.Operational{AvailableForService: true, CurrentMileage: mileage},
	}
}

func TestSimulate_UnknownTargetReturnsErrTargetNotFound(t *testing.T) {
	now := time.Now()
	trains := []domain.Train{serviceReadyTrain("TS-01", 5000, now)}

	_, err := Simulate(context.Background(), trains, "TS-99", domain.Modifications{}, nil, now)

	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestSimulate_DoesNotMutateOriginalTrains(t *testing.T) {
	now := time.Now()
	original := serviceReadyTrain("TS-01", 5000, now)
	trains := []domain.Train{original}

	falseVal := false
	mods := domain.Modifications{
		Fitness: &domain.FitnessOverlay{Valid: &falseVal},
	}

	_, err := Simulate(context.Background(), trains, "TS-01", mods, nil, now)

	require.NoError(t, err)
	assert.True(t, trains[0].Fitness.Valid, "original slice entry must not be mutated")
}

func TestSimulate_ReportsRankWhenTargetStaysEligible(t *testing.T) {
	now := time.Now()
	trains := []domain.Train{
		serviceReadyTrain("TS-01", 5000, now),
		serviceReadyTrain("TS-02", 5500, now),
	}

	result, err := Simulate(context.Background(), trains, "TS-01", domain.Modifications{}, nil, now)

	require.NoError(t, err)
	require.NotNil(t, result.Impact.NewRank)
	assert.Contains(t, result.Impact.RankChange, "Moved to rank")
	assert.Equal(t, 2, result.Impact.AffectedTrains)
}

func TestSimulate_TargetDroppedFromRankingReportsNotInTopRankings(t *testing.T) {
	now := time.Now()
	trains := []domain.Train{
		serviceReadyTrain("TS-01", 5000, now),
		serviceReadyTrain("TS-02", 5500, now),
	}

	falseVal := false
	mods := domain.Modifications{
		Fitness: &domain.FitnessOverlay{Valid: &falseVal},
	}

	result, err := Simulate(context.Background(), trains, "TS-01", mods, nil, now)

	require.NoError(t, err)
	assert.Nil(t, result.Impact.NewRank)
	assert.Equal(t, "Not in top rankings", result.Impact.RankChange)
	assert.Equal(t, 1, result.Impact.AffectedTrains)
}

func TestSimulate_CarriesSimulationParams(t *testing.T) {
	now := time.Now()
	trains := []domain.Train{serviceReadyTrain("TS-01", 5000, now)}
	mileage := 12000
	mods := domain.Modifications{
		Operational: &domain.OperationalOverlay{CurrentMileage: &mileage},
	}

	result, err := Simulate(context.Background(), trains, "TS-01", mods, nil, now)

	require.NoError(t, err)
	assert.Equal(t, "TS-01", result.SimulationParams.TargetTrain)
	assert.Equal(t, mods, result.SimulationParams.Modifications)
}

func TestSimulate_AlertsReflectModifiedState(t *testing.T) {
	now := time.Now()
	trains := []domain.Train{serviceReadyTrain("TS-01", 5000, now)}

	dueStatus := domain.MaintenanceDue
	mods := domain.Modifications{
		Maintenance: &domain.MaintenanceOverlay{Status: &dueStatus},
	}

	result, err := Simulate(context.Background(), trains, "TS-01", mods, nil, now)

	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)
	assert.Contains(t, result.Alerts[0].Message, "maintenance is due")
}
