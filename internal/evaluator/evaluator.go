// Package evaluator derives per-train booleans and urgency buckets from
// raw trainset state. It is a pure, I/O-free leaf package: every other
// component in the engine builds on its output instead of re-deriving
// these fields from a Train directly.
package evaluator

import (
	"math"
	"time"

	"github.com/metrorail/induction-planner/internal/domain"
)

// Result is the full set of derived fields for one trainset at a point
// in time.
type Result struct {
	FitnessValid       bool
	DaysToExpiry       int // may be negative
	MaintenanceReady   bool
	MaintenanceDue     bool
	MaintenanceUrgency domain.Urgency
	CleaningReady      bool
	HardEligible       bool
}

// Evaluate computes Result for a single train relative to now. It never
// performs I/O and never returns an error: every Train, however stale,
// produces a well-formed Result.
func Evaluate(train domain.Train, now time.Time) Result {
	fitnessValid := train.Fitness.Valid && train.Fitness.Expiry.After(now)
	daysToExpiry := int(math.Floor(train.Fitness.Expiry.Sub(now).Seconds() / 86400))

	maintenanceDue := !train.Maintenance.NextMaintenanceDue.After(now) ||
		train.Maintenance.Status == domain.MaintenanceDue
	maintenanceReady := train.Maintenance.Status == domain.MaintenanceOperational && !maintenanceDue

	urgency := maintenanceUrgency(train.Maintenance.NextMaintenanceDue, now)

	cleaningReady := train.Cleaning.Status == domain.CleaningClean

	hardEligible := fitnessValid &&
		train.Maintenance.Status == domain.MaintenanceOperational &&
		train.Operational.AvailableForService

	return Result{
		FitnessValid:       fitnessValid,
		DaysToExpiry:       daysToExpiry,
		MaintenanceReady:   maintenanceReady,
		MaintenanceDue:     maintenanceDue,
		MaintenanceUrgency: urgency,
		CleaningReady:      cleaningReady,
		HardEligible:       hardEligible,
	}
}

// maintenanceUrgency buckets the days remaining until nextMaintenanceDue
// per §3's thresholds: >7 LOW, ≤7 MEDIUM, ≤3 HIGH, ≤0 CRITICAL.
func maintenanceUrgency(due, now time.Time) domain.Urgency {
	daysUntil := due.Sub(now).Hours() / 24
	switch {
	case daysUntil <= 0:
		return domain.UrgencyCritical
	case daysUntil <= 3:
		return domain.UrgencyHigh
	case daysUntil <= 7:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
