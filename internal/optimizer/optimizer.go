// Package optimizer orchestrates the hard-constraint filter, scoring,
// deterministic ranking, and confidence aggregation that produce a
// plan's rankedTrains and optimizationMetrics. It never performs I/O
// and tolerates degenerate (empty) input.
package optimizer

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/evaluator"
	"github.com/metrorail/induction-planner/internal/scorer"
)

// Constraints is an opaque, caller-supplied weights bag. The fallback
// scorer never consults it — per spec §9 it is reserved for a future
// weighted-optimizer implementation — but it is carried through to
// ModelInfo.Parameters so a plan's explanation can show what the caller
// asked for.
type Constraints map[string]interface{}

// Output is the Optimizer's full result for one invocation.
type Output struct {
	RankedTrains []domain.RankedEntry
	Metrics      domain.OptimizationMetrics
	ModelInfo    domain.ModelInfo
}

type scored struct {
	train  domain.Train
	result scorer.Result
	ev     evaluator.Result
}

// Run executes the eight-step algorithm from §4.3 over trains.
func Run(ctx context.Context, trains []domain.Train, constraints Constraints, now time.Time) Output {
	start := time.Now()

	evaluations := make([]evaluator.Result, len(trains))
	for i, t := range trains {
		evaluations[i] = evaluator.Evaluate(t, now)
	}

	var candidates []domain.Train
	var candidateEvals []evaluator.Result
	for i, ev := range evaluations {
		if ev.HardEligible {
			candidates = append(candidates, trains[i])
			candidateEvals = append(candidateEvals, ev)
		}
	}

	if len(candidates) == 0 {
		return Output{
			RankedTrains: nil,
			Metrics: domain.OptimizationMetrics{
				TotalTrainsEvaluated: len(trains),
				ConstraintsSatisfied: 0,
				AverageConfidence:    0,
				ProcessingTimeMs:     time.Since(start).Milliseconds(),
			},
			ModelInfo: modelInfo(constraints),
		}
	}

	meanMileage := meanMileage(candidates)
	fleetCtx := scorer.FleetContext{MeanMileage: meanMileage}

	results := make([]scored, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i
		g.Go(func() error {
			results[i] = scored{
				train:  candidates[i],
				ev:     candidateEvals[i],
				result: scorer.Score(candidates[i], candidateEvals[i], fleetCtx),
			}
			return nil
		})
	}
	_ = g.Wait() // scoring never errors; result ordering is restored below

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].result.Score != results[j].result.Score {
			return results[i].result.Score > results[j].result.Score
		}
		return results[i].train.Code < results[j].train.Code
	})

	entries := make([]domain.RankedEntry, 0, len(results))
	var confidenceSum float64
	for i, r := range results {
		entries = append(entries, domain.RankedEntry{
			TrainRef:        trainRef(r.train),
			TrainCode:       r.train.Code,
			Rank:            i + 1,
			Reasoning:       r.result.Reasoning,
			ConfidenceScore: r.result.Confidence,
			Constraints: domain.EntryConstraints{
				FitnessValid:     r.ev.FitnessValid,
				MaintenanceReady: r.ev.MaintenanceReady,
				CleaningStatus:   string(r.train.Cleaning.Status),
				BrandingPriority: r.train.BrandingPriority(),
				MileageBalance:   float64(r.train.Operational.CurrentMileage) - meanMileage,
			},
		})
		confidenceSum += float64(r.result.Confidence)
	}

	return Output{
		RankedTrains: entries,
		Metrics: domain.OptimizationMetrics{
			TotalTrainsEvaluated: len(trains),
			ConstraintsSatisfied: len(entries),
			AverageConfidence:    confidenceSum / float64(len(entries)),
			ProcessingTimeMs:     time.Since(start).Milliseconds(),
		},
		ModelInfo: modelInfo(constraints),
	}
}

func modelInfo(constraints Constraints) domain.ModelInfo {
	return domain.ModelInfo{
		Version:    domain.FallbackVersion,
		Algorithm:  domain.FallbackAlgorithm,
		Parameters: constraints,
	}
}

func trainRef(t domain.Train) string {
	if t.ID != "" {
		return t.ID
	}
	return t.Code
}

func meanMileage(trains []domain.Train) float64 {
	if len(trains) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trains {
		sum += float64(t.Operational.CurrentMileage)
	}
	return sum / float64(len(trains))
}
