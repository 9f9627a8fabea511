// Package domain holds the core data model for the induction planning
// engine: trainsets, induction plans, and the enumerations the wire
// contract exposes.
package domain

import (
	"regexp"
	"time"
)

// MaintenanceStatus is the lifecycle state of a trainset's maintenance.
type MaintenanceStatus string

const (
	MaintenanceOperational MaintenanceStatus = "OPERATIONAL"
	MaintenanceDue         MaintenanceStatus = "MAINTENANCE_DUE"
	MaintenanceInProgress  MaintenanceStatus = "IN_MAINTENANCE"
)

// CleaningStatus is the lifecycle state of a trainset's cleaning.
type CleaningStatus string

const (
	CleaningClean      CleaningStatus = "CLEAN"
	CleaningDue        CleaningStatus = "CLEANING_DUE"
	CleaningInProgress CleaningStatus = "IN_CLEANING"
)

// Urgency buckets the days remaining until the next scheduled maintenance.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

var trainCodePattern = regexp.MustCompile(`^TS-\d{2}$`)

// ValidTrainCode reports whether code matches the trainset code format.
func ValidTrainCode(code string) bool {
	return trainCodePattern.MatchString(code)
}

// Fitness captures a trainset's regulatory fitness certificate.
type Fitness struct {
	Valid          bool       `json:"valid"`
	Expiry         time.Time  `json:"expiry"`
	LastInspection *time.Time `json:"lastInspection,omitempty"`
}

// Maintenance captures a trainset's maintenance lifecycle.
type Maintenance struct {
	Status             MaintenanceStatus `json:"status"`
	LastMaintenance     *time.Time        `json:"lastMaintenance,omitempty"`
	NextMaintenanceDue  time.Time         `json:"nextMaintenanceDue"`
}

// Cleaning captures a trainset's cleaning lifecycle.
type Cleaning struct {
	Status CleaningStatus `json:"status"`
}

// Operational captures mileage, location and availability.
type Operational struct {
	CurrentMileage        int     `json:"currentMileage"`
	CurrentLocation       string  `json:"currentLocation"`
	AvailableForService   bool    `json:"availableForService"`
	TotalOperationalHours float64 `json:"totalOperationalHours"`
}

// Branding captures commercial branding obligations for a trainset.
type Branding struct {
	HasBranding bool   `json:"hasBranding"`
	Campaign    string `json:"campaign,omitempty"`
	Priority    int    `json:"priority"` // 1..5, default 1
}

// TelemetrySnapshot is optional upstream performance/reliability data.
// Absent for most trainsets; the Scorer treats a nil snapshot as zeros.
type TelemetrySnapshot struct {
	PerformanceScore float64 `json:"performanceScore"`
	ReliabilityScore float64 `json:"reliabilityScore"`
}

// Train is one physical trainset.
type Train struct {
	ID          string             `json:"id"`
	Code        string             `json:"code" validate:"required"`
	Fitness     Fitness            `json:"fitness"`
	Maintenance Maintenance        `json:"maintenance"`
	Cleaning    Cleaning           `json:"cleaning"`
	Operational Operational        `json:"operational"`
	Branding    Branding           `json:"branding"`
	Telemetry   *TelemetrySnapshot `json:"telemetry,omitempty"`
}

// ServiceReady implements the §3 derived boolean:
// valid ∧ status=OPERATIONAL ∧ availableForService ∧ expiry > now.
func (t Train) ServiceReady(now time.Time) bool {
	return t.Fitness.Valid &&
		t.Maintenance.Status == MaintenanceOperational &&
		t.Operational.AvailableForService &&
		t.Fitness.Expiry.After(now)
}

// BrandingPriority returns the documented default of 1 when unset.
func (t Train) BrandingPriority() int {
	if t.Branding.Priority <= 0 {
		return 1
	}
	return t.Branding.Priority
}

// Modifications is a partial overlay applied by the Simulator. Every
// field is optional; present nested structs are merged field-wise onto
// the target train's corresponding struct, not replaced wholesale.
type Modifications struct {
	Fitness     *FitnessOverlay     `json:"fitness,omitempty"`
	Maintenance *MaintenanceOverlay `json:"maintenance,omitempty"`
	Cleaning    *CleaningOverlay    `json:"cleaning,omitempty"`
	Operational *OperationalOverlay `json:"operational,omitempty"`
	Branding    *BrandingOverlay    `json:"branding,omitempty"`
}

// FitnessOverlay carries optional per-field fitness overrides.
type FitnessOverlay struct {
	Valid  *bool      `json:"valid,omitempty"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// MaintenanceOverlay carries optional per-field maintenance overrides.
type MaintenanceOverlay struct {
	Status             *MaintenanceStatus `json:"status,omitempty"`
	NextMaintenanceDue *time.Time         `json:"nextMaintenanceDue,omitempty"`
}

// CleaningOverlay carries optional per-field cleaning overrides.
type CleaningOverlay struct {
	Status *CleaningStatus `json:"status,omitempty"`
}

// OperationalOverlay carries optional per-field operational overrides.
type OperationalOverlay struct {
	CurrentMileage      *int  `json:"currentMileage,omitempty"`
	AvailableForService *bool `json:"availableForService,omitempty"`
}

// BrandingOverlay carries optional per-field branding overrides.
type BrandingOverlay struct {
	HasBranding *bool   `json:"hasBranding,omitempty"`
	Campaign    *string `json:"campaign,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// Apply returns a shallow copy of train with mods merged field-wise onto
// the relevant nested structs, leaving every unmentioned field intact.
func Apply(train Train, mods Modifications) Train {
	out := train

	if f := mods.Fitness; f != nil {
		if f.Valid != nil {
			out.Fitness.Valid = *f.Valid
		}
		if f.Expiry != nil {
			out.Fitness.Expiry = *f.Expiry
		}
	}
	if m := mods.Maintenance; m != nil {
		if m.Status != nil {
			out.Maintenance.Status = *m.Status
		}
		if m.NextMaintenanceDue != nil {
			out.Maintenance.NextMaintenanceDue = *m.NextMaintenanceDue
		}
	}
	if c := mods.Cleaning; c != nil {
		if c.Status != nil {
			out.Cleaning.Status = *c.Status
		}
	}
	if o := mods.Operational; o != nil {
		if o.CurrentMileage != nil {
			out.Operational.CurrentMileage = *o.CurrentMileage
		}
		if o.AvailableForService != nil {
			out.Operational.AvailableForService = *o.AvailableForService
		}
	}
	if b := mods.Branding; b != nil {
		if b.HasBranding != nil {
			out.Branding.HasBranding = *b.HasBranding
		}
		if b.Campaign != nil {
			out.Branding.Campaign = *b.Campaign
		}
		if b.Priority != nil {
			out.Branding.Priority = *b.Priority
		}
	}

	return out
}
