// Package simulator applies a hypothetical modification to one train
// and reruns the Optimizer, producing an impact-analysis delta without
// touching any persisted state.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metrorail/induction-planner/internal/alerts"
	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/optimizer"
)

// ErrTargetNotFound is returned when targetRef matches no train.
var ErrTargetNotFound = errors.New("target train not found")

// ImpactAnalysis summarizes how the modification changed the ranking.
type ImpactAnalysis struct {
	NewRank        *int   `json:"newRank"`
	RankChange     string `json:"rankChange"`
	AffectedTrains int    `json:"affectedTrains"`
}

// Result is the full simulation output.
type Result struct {
	Status           domain.PlanStatus
	RankedTrains     []domain.RankedEntry
	Alerts           []domain.Alert
	Metrics          domain.OptimizationMetrics
	ModelInfo        domain.ModelInfo
	SimulationParams domain.SimulationParams
	Impact           ImpactAnalysis
}

// Simulate locates targetRef (by code or stable id) within trains,
// applies mods as a shallow field-wise overlay, reruns the Optimizer on
// the modified set, and reports the target's rank delta.
func Simulate(ctx context.Context, trains []domain.Train, targetRef string, mods domain.Modifications, constraints optimizer.Constraints, now time.Time) (Result, error) {
	idx := -1
	for i, t := range trains {
		if t.Code == targetRef || t.ID == targetRef {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Result{}, ErrTargetNotFound
	}

	modified := make([]domain.Train, len(trains))
	copy(modified, trains)
	modified[idx] = domain.Apply(modified[idx], mods)
	target := modified[idx]

	out := optimizer.Run(ctx, modified, constraints, now)
	alertList := alerts.Generate(modified, now)

	var newRank *int
	rankChange := "Not in top rankings"
	for _, entry := range out.RankedTrains {
		if entry.TrainCode == target.Code {
			r := entry.Rank
			newRank = &r
			rankChange = fmt.Sprintf("Moved to rank %d", r)
			break
		}
	}

	return Result{
		Status:       domain.PlanSimulation,
		RankedTrains: out.RankedTrains,
		Alerts:       alertList,
		Metrics:      out.Metrics,
		ModelInfo:    out.ModelInfo,
		SimulationParams: domain.SimulationParams{
			TargetTrain:   targetRef,
			Modifications: mods,
		},
		Impact: ImpactAnalysis{
			NewRank:        newRank,
			RankChange:     rankChange,
			AffectedTrains: len(out.RankedTrains),
		},
	}, nil
}
