// Package plan implements the Plan Service: the only component with
// authority to persist an InductionPlan. It wires the pure components
// (Optimizer, Alert Generator, Simulator) to the repositories and the
// External Optimizer Adapter, and enforces the idempotency guarantee on
// FINALIZED plans.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/metrorail/induction-planner/internal/adapter"
	"github.com/metrorail/induction-planner/internal/alerts"
	"github.com/metrorail/induction-planner/internal/common/cache"
	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/evaluator"
	"github.com/metrorail/induction-planner/internal/optimizer"
	"github.com/metrorail/induction-planner/internal/repository"
	"github.com/metrorail/induction-planner/internal/simulator"
)

// defaultHistoryLimit and maxHistoryLimit bound the page size accepted
// by History, matching the documented GET /history?limit=<1..100>
// contract regardless of caller.
const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// ErrNoTrainsAvailable is returned by Generate when the fleet is empty.
var ErrNoTrainsAvailable = errors.New("no trains available")

// ErrPlanConflict wraps repository.ErrPlanDateConflict with the
// existing plan so the handler can build the 409 response.
type ErrPlanConflict struct {
	Existing domain.InductionPlan
}

func (e *ErrPlanConflict) Error() string {
	return fmt.Sprintf("finalized plan %s already exists for this date", e.Existing.ID)
}

// Summary is the compact counters attached to Generate/Latest responses.
type Summary struct {
	TotalTrains       int     `json:"totalTrains"`
	CriticalAlerts    int     `json:"criticalAlerts"`
	AverageConfidence float64 `json:"averageConfidence"`
	Status            string  `json:"status"`
}

// GenerateResult is Generate's return shape.
type GenerateResult struct {
	Plan            domain.InductionPlan
	Summary         Summary
	ProcessingTime  time.Duration
}

// LatestResult is Latest's return shape.
type LatestResult struct {
	Plan           domain.InductionPlan
	Summary        Summary
	TopTrains      []domain.RankedEntry
	CriticalAlerts []domain.Alert
}

// Explanation pairs a ranked entry with a read-time detailed analysis.
type Explanation struct {
	Rank             int                    `json:"rank"`
	Train            *domain.Train          `json:"train"`
	Reasoning        string                 `json:"reasoning"`
	ConfidenceScore  int                    `json:"confidenceScore"`
	Constraints      domain.EntryConstraints `json:"constraints"`
	DetailedAnalysis *DetailedAnalysis       `json:"detailedAnalysis"`
}

// DetailedAnalysis is a read-time re-derivation of a train's evaluator
// output, built for the /explain view. It is never persisted or
// treated as authoritative — the ranked entry's stored reasoning is.
type DetailedAnalysis struct {
	FitnessValid       bool           `json:"fitnessValid"`
	DaysToExpiry       int            `json:"daysToExpiry"`
	MaintenanceUrgency domain.Urgency `json:"maintenanceUrgency"`
	CurrentMileage     int            `json:"currentMileage"`
	BrandingPriority   int            `json:"brandingPriority"`
	CurrentLocation    string         `json:"currentLocation"`
}

// ExplainResult is Explain's return shape.
type ExplainResult struct {
	Plan                domain.InductionPlan
	Explanations        []Explanation
	OptimizationMetrics domain.OptimizationMetrics
	AIModelInfo         domain.ModelInfo
	Alerts              []domain.Alert
}

// TrendPoint is one sample of the induction-plan quality trend.
type TrendPoint struct {
	PlanDate          time.Time `json:"planDate"`
	AverageConfidence float64   `json:"averageConfidence"`
	CriticalAlerts    int       `json:"criticalAlerts"`
}

// Service is the Plan Service.
type Service struct {
	trains  repository.TrainRepository
	plans   repository.PlanRepository
	adapter *adapter.Adapter
	cache   *cache.RedisCache // optional; nil disables read caching
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Service. nowFunc defaults to time.Now when nil, letting
// tests inject a fixed clock. planCache may be nil, in which case Latest,
// History and Explain read straight through to the repositories.
func New(trains repository.TrainRepository, plans repository.PlanRepository, optimizerAdapter *adapter.Adapter, planCache *cache.RedisCache, logger *slog.Logger, nowFunc func() time.Time) *Service {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Service{trains: trains, plans: plans, adapter: optimizerAdapter, cache: planCache, logger: logger, now: nowFunc}
}

// Generate runs the Optimizer (external-then-local) over the current
// fleet and persists a FINALIZED plan for planDate, unless a FINALIZED
// plan already exists for that date and forceRegenerate is false.
func (s *Service) Generate(ctx context.Context, planDate time.Time, forceRegenerate bool, callerID string, constraints optimizer.Constraints) (GenerateResult, error) {
	start := s.now()

	if !forceRegenerate {
		existing, err := s.plans.FindFinalizedByDate(ctx, planDate)
		if err == nil {
			return GenerateResult{}, &ErrPlanConflict{Existing: existing}
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return GenerateResult{}, err
		}
	}

	trains, err := s.trains.ListAll(ctx)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(trains) == 0 {
		return GenerateResult{}, ErrNoTrainsAvailable
	}

	now := s.now()
	out := s.adapter.Run(ctx, trains, constraints, now)
	alertList := alerts.Generate(trains, now)

	newPlan := domain.InductionPlan{
		PlanDate:            planDate,
		GeneratedAt:         now,
		Status:              domain.PlanFinalized,
		RankedTrains:        out.RankedTrains,
		Alerts:              alertList,
		OptimizationMetrics: out.Metrics,
		GeneratedBy:         callerID,
		AIModelInfo:         out.ModelInfo,
	}

	persisted, err := s.plans.Insert(ctx, newPlan, forceRegenerate)
	if err != nil {
		if errors.Is(err, repository.ErrPlanDateConflict) {
			existing, findErr := s.plans.FindFinalizedByDate(ctx, planDate)
			if findErr == nil {
				return GenerateResult{}, &ErrPlanConflict{Existing: existing}
			}
		}
		return GenerateResult{}, err
	}

	s.invalidateReadCache(ctx)

	return GenerateResult{
		Plan:           persisted,
		Summary:        summarize(persisted),
		ProcessingTime: s.now().Sub(start),
	}, nil
}

// Latest returns the FINALIZED plan with the latest plan date (the most
// recently generated one among plans for that date). The plan
// itself is read-through cached: cache.LatestPlanExpiration is short
// since a newly FINALIZED plan must become visible almost immediately.
func (s *Service) Latest(ctx context.Context) (LatestResult, error) {
	var p domain.InductionPlan
	fromCache := false
	if s.cache != nil {
		if err := s.cache.Get(ctx, s.cache.LatestPlanKey(), &p); err == nil {
			fromCache = true
		}
	}

	if !fromCache {
		var err error
		p, err = s.plans.FindLatestFinalized(ctx)
		if err != nil {
			return LatestResult{}, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, s.cache.LatestPlanKey(), p, cache.LatestPlanExpiration)
		}
	}

	top := p.RankedTrains
	if len(top) > 5 {
		top = top[:5]
	}

	return LatestResult{
		Plan:           p,
		Summary:        summarize(p),
		TopTrains:      top,
		CriticalAlerts: criticalOnly(p.Alerts),
	}, nil
}

// historyPage is what History caches per (limit, page) pair.
type historyPage struct {
	Plans []domain.InductionPlan
	Total int64
}

// History returns a bounded, newest-first list of FINALIZED plans plus
// the total count for pagination, read-through cached per page/limit.
func (s *Service) History(ctx context.Context, limit, page int) ([]domain.InductionPlan, int64, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if s.cache == nil {
		return s.plans.ListFinalized(ctx, limit, page)
	}

	key := s.cache.PlanHistoryKey(page, limit)
	var cached historyPage
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached.Plans, cached.Total, nil
	}

	plans, total, err := s.plans.ListFinalized(ctx, limit, page)
	if err != nil {
		return nil, 0, err
	}
	_ = s.cache.Set(ctx, key, historyPage{Plans: plans, Total: total}, cache.HistoryExpiration)
	return plans, total, nil
}

// Trend returns the last N FINALIZED plans' quality signal, oldest
// first, for a caller plotting plan quality over time. Additive
// read-side projection; it does not change any other operation.
func (s *Service) Trend(ctx context.Context, days int) ([]TrendPoint, error) {
	plans, _, err := s.plans.ListFinalized(ctx, days, 1)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(plans))
	for _, p := range plans {
		points = append(points, TrendPoint{
			PlanDate:          p.PlanDate,
			AverageConfidence: p.OptimizationMetrics.AverageConfidence,
			CriticalAlerts:    countSeverity(p.Alerts, 5),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].PlanDate.Before(points[j].PlanDate) })
	return points, nil
}

// Explain returns a plan's stored rankings plus a read-time detailed
// analysis per entry, derived from the current Train state. A deleted
// train yields a nil DetailedAnalysis; the stored reasoning remains
// authoritative.
func (s *Service) Explain(ctx context.Context, planID string) (ExplainResult, error) {
	p, err := s.planByID(ctx, planID)
	if err != nil {
		return ExplainResult{}, err
	}

	now := s.now()
	explanations := make([]Explanation, 0, len(p.RankedTrains))
	for _, entry := range p.RankedTrains {
		exp := Explanation{
			Rank:            entry.Rank,
			Reasoning:       entry.Reasoning,
			ConfidenceScore: entry.ConfidenceScore,
			Constraints:     entry.Constraints,
		}

		train, findErr := s.trains.FindByID(ctx, entry.TrainRef)
		if findErr != nil {
			train, findErr = s.trains.FindByCode(ctx, entry.TrainCode)
		}
		if findErr == nil {
			t := train
			exp.Train = &t
			ev := evaluator.Evaluate(train, now)
			exp.DetailedAnalysis = &DetailedAnalysis{
				FitnessValid:       ev.FitnessValid,
				DaysToExpiry:       ev.DaysToExpiry,
				MaintenanceUrgency: ev.MaintenanceUrgency,
				CurrentMileage:     train.Operational.CurrentMileage,
				BrandingPriority:   train.BrandingPriority(),
				CurrentLocation:    train.Operational.CurrentLocation,
			}
		}

		explanations = append(explanations, exp)
	}

	return ExplainResult{
		Plan:                p,
		Explanations:        explanations,
		OptimizationMetrics: p.OptimizationMetrics,
		AIModelInfo:         p.AIModelInfo,
		Alerts:              p.Alerts,
	}, nil
}

// Simulate runs the Simulator against the current fleet and returns a
// transient SIMULATION-status result. Nothing is persisted.
func (s *Service) Simulate(ctx context.Context, targetTrainRef string, mods domain.Modifications, baseDate *time.Time, constraints optimizer.Constraints) (simulator.Result, error) {
	trains, err := s.trains.ListAll(ctx)
	if err != nil {
		return simulator.Result{}, err
	}

	now := s.now()
	if baseDate != nil {
		now = *baseDate
	}
	return simulator.Simulate(ctx, trains, targetTrainRef, mods, constraints, now)
}

// planByID loads an immutable FINALIZED plan by id, read-through cached.
// Explain still re-derives each entry's DetailedAnalysis from the live
// Train state after this call, so caching the plan record itself never
// makes the explanation stale.
func (s *Service) planByID(ctx context.Context, planID string) (domain.InductionPlan, error) {
	if s.cache == nil {
		return s.plans.FindByID(ctx, planID)
	}

	key := s.cache.PlanByIDKey(planID)
	var cached domain.InductionPlan
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return domain.InductionPlan{}, err
	}
	_ = s.cache.Set(ctx, key, p, cache.MediumExpiration)
	return p, nil
}

// invalidateReadCache clears every key under the cache prefix after a
// successful Generate: the latest-plan entry, all history pages and the
// PlanByIDKey entries alike.
func (s *Service) invalidateReadCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil && s.logger != nil {
		s.logger.Warn("failed to invalidate plan read cache", "error", err)
	}
}

func summarize(p domain.InductionPlan) Summary {
	return Summary{
		TotalTrains:       len(p.RankedTrains),
		CriticalAlerts:    countSeverity(p.Alerts, 5),
		AverageConfidence: p.OptimizationMetrics.AverageConfidence,
		Status:            string(p.Status),
	}
}

func criticalOnly(list []domain.Alert) []domain.Alert {
	out := make([]domain.Alert, 0, len(list))
	for _, a := range list {
		if a.Type == domain.AlertCritical {
			out = append(out, a)
		}
	}
	return out
}

func countSeverity(list []domain.Alert, severity int) int {
	count := 0
	for _, a := range list {
		if a.Severity == severity {
			count++
		}
	}
	return count
}
