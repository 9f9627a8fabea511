package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/domain"
)

func readyTrain(code string, mileage int) domain.Train {
	now := time.Now()
	return domain.Train{
		ID:          code,
		Code:        code,
		Fitness:     domain.Fitness{Valid: true, Expiry: now.AddDate(0, 6, 0)},
		Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.AddDate(0, 1, 0)},
		Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
		Operational: domain.Operational{AvailableForService: true, CurrentMileage: mileage},
		Branding:    domain.Branding{Priority: 1},
	}
}

func TestRun_EmptyFleetYieldsNoCandidates(t *testing.T) {
	out := Run(context.Background(), nil, nil, time.Now())

	assert.Empty(t, out.RankedTrains)
	assert.Equal(t, 0, out.Metrics.TotalTrainsEvaluated)
	assert.Equal(t, 0, out.Metrics.ConstraintsSatisfied)
	assert.Equal(t, domain.FallbackAlgorithm, out.ModelInfo.Algorithm)
}

func TestRun_ExcludesIneligibleTrains(t *testing.T) {
	eligible := readyTrain("TS-01", 5000)
	ineligible := readyTrain("TS-02", 5000)
	ineligible.Fitness.Valid = false

	out := Run(context.Background(), []domain.Train{eligible, ineligible}, nil, time.Now())

	require.Len(t, out.RankedTrains, 1)
	assert.Equal(t, "TS-01", out.RankedTrains[0].TrainCode)
	assert.Equal(t, 2, out.Metrics.TotalTrainsEvaluated)
	assert.Equal(t, 1, out.Metrics.ConstraintsSatisfied)
}

func TestRun_RanksByScoreDescendingAndAssignsDenseRanks(t *testing.T) {
	trains := []domain.Train{
		readyTrain("TS-01", 5000),
		readyTrain("TS-02", 50000),
		readyTrain("TS-03", 5100),
	}

	out := Run(context.Background(), trains, nil, time.Now())

	require.Len(t, out.RankedTrains, 3)
	for i, entry := range out.RankedTrains {
		assert.Equal(t, i+1, entry.Rank)
	}
	for i := 1; i < len(out.RankedTrains); i++ {
		prevScore := scoreOf(out, i-1)
		curScore := scoreOf(out, i)
		assert.GreaterOrEqual(t, prevScore, curScore)
	}
}

func scoreOf(out Output, i int) int {
	return out.RankedTrains[i].ConfidenceScore
}

func TestRun_TieBreaksByTrainCodeAscending(t *testing.T) {
	a := readyTrain("TS-02", 5000)
	b := readyTrain("TS-01", 5000)

	out := Run(context.Background(), []domain.Train{a, b}, nil, time.Now())

	require.Len(t, out.RankedTrains, 2)
	assert.Equal(t, "TS-01", out.RankedTrains[0].TrainCode)
	assert.Equal(t, "TS-02", out.RankedTrains[1].TrainCode)
}

func TestRun_CarriesConstraintsIntoModelInfoParameters(t *testing.T) {
	constraints := Constraints{"maxMileageDeviation": 1000}

	out := Run(context.Background(), []domain.Train{readyTrain("TS-01", 5000)}, constraints, time.Now())

	assert.Equal(t, map[string]interface{}(constraints), out.ModelInfo.Parameters)
}

func TestRun_AverageConfidenceIsWithinBounds(t *testing.T) {
	trains := []domain.Train{readyTrain("TS-01", 5000), readyTrain("TS-02", 20000)}

	out := Run(context.Background(), trains, nil, time.Now())

	assert.GreaterOrEqual(t, out.Metrics.AverageConfidence, 60.0)
	assert.LessOrEqual(t, out.Metrics.AverageConfidence, 100.0)
}
