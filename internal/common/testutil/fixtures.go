package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/metrorail/induction-planner/internal/domain"
)

// NewTestTrain creates a fully service-ready trainset with default values,
// suitable as a baseline for tests that tweak one or two fields.
func NewTestTrain(code string) domain.Train {
	now := time.Now()
	lastInspection := now.AddDate(0, -1, 0)
	lastMaintenance := now.AddDate(0, 0, -10)

	return domain.Train{
		ID:   uuid.New().String(),
		Code: code,
		Fitness: domain.Fitness{
			Valid:          true,
			Expiry:         now.AddDate(0, 6, 0),
			LastInspection: &lastInspection,
		},
		Maintenance: domain.Maintenance{
			Status:             domain.MaintenanceOperational,
			LastMaintenance:    &lastMaintenance,
			NextMaintenanceDue: now.AddDate(0, 1, 0),
		},
		Cleaning: domain.Cleaning{
			Status: domain.CleaningClean,
		},
		Operational: domain.Operational{
			CurrentMileage:        50000,
			CurrentLocation:       "Depot A",
			AvailableForService:   true,
			TotalOperationalHours: 1200,
		},
		Branding: domain.Branding{
			HasBranding: false,
			Priority:    1,
		},
	}
}

// NewTestPlan creates a minimal finalized plan referencing the given trains.
func NewTestPlan(trains ...domain.Train) domain.InductionPlan {
	now := time.Now()
	entries := make([]domain.RankedEntry, 0, len(trains))
	for i, t := range trains {
		entries = append(entries, domain.RankedEntry{
			TrainRef:        t.ID,
			TrainCode:       t.Code,
			Rank:            i + 1,
			Reasoning:       "test fixture ranking",
			ConfidenceScore: 90,
			Constraints: domain.EntryConstraints{
				FitnessValid:     t.Fitness.Valid,
				MaintenanceReady: t.Maintenance.Status == domain.MaintenanceOperational,
				CleaningStatus:   string(t.Cleaning.Status),
				BrandingPriority: t.BrandingPriority(),
				MileageBalance:   float64(t.Operational.CurrentMileage),
			},
		})
	}

	return domain.InductionPlan{
		ID:           uuid.New().String(),
		PlanDate:     now,
		GeneratedAt:  now,
		Status:       domain.PlanFinalized,
		RankedTrains: entries,
		Alerts:       []domain.Alert{},
		OptimizationMetrics: domain.OptimizationMetrics{
			TotalTrainsEvaluated: len(trains),
			ConstraintsSatisfied: len(trains),
			AverageConfidence:    90,
			ProcessingTimeMs:     5,
		},
		GeneratedBy: "test-fixture",
		AIModelInfo: domain.ModelInfo{
			Version:   domain.FallbackVersion,
			Algorithm: domain.FallbackAlgorithm,
		},
	}
}

// PtrString returns a pointer to s.
func PtrString(s string) *string {
	return &s
}

// PtrTime returns a pointer to t.
func PtrTime(t time.Time) *time.Time {
	return &t
}
