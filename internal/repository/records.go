package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/metrorail/induction-planner/internal/domain"
)

// TrainRecord is the GORM-mapped row for a trainset. Nested structs are
// stored as JSONB, since the nested shapes here (Fitness, Maintenance,
// ...) are part of the wire contract and gain nothing from being
// normalized into their own tables.
type TrainRecord struct {
	ID          string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string         `gorm:"size:16;uniqueIndex;not null"`
	Fitness     datatypesJSON  `gorm:"type:jsonb;not null"`
	Maintenance datatypesJSON  `gorm:"type:jsonb;not null"`
	Cleaning    datatypesJSON  `gorm:"type:jsonb;not null"`
	Operational datatypesJSON  `gorm:"type:jsonb;not null"`
	Branding    datatypesJSON  `gorm:"type:jsonb;not null"`
	Telemetry   datatypesJSON  `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName pins the table name independent of Go naming conventions.
func (TrainRecord) TableName() string { return "trains" }

// BeforeCreate assigns a UUID when one was not supplied.
func (r *TrainRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// datatypesJSON is a minimal jsonb-backed value, avoiding a dependency
// on gorm's datatypes package while keeping the same jsonb storage
// strategy.
type datatypesJSON json.RawMessage

// Value implements driver.Valuer so GORM can write this type to a jsonb column.
func (j datatypesJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner so GORM can read a jsonb column into this type.
func (j *datatypesJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = datatypesJSON(v)
		return nil
	default:
		return fmt.Errorf("unsupported type for datatypesJSON: %T", value)
	}
}

// PlanRecord is the GORM-mapped row for an induction plan.
type PlanRecord struct {
	ID                  string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PlanDate            time.Time      `gorm:"type:date;not null;index"`
	GeneratedAt         time.Time      `gorm:"not null"`
	Status              string         `gorm:"size:16;not null;index"`
	RankedTrains        datatypesJSON  `gorm:"type:jsonb;not null"`
	Alerts              datatypesJSON  `gorm:"type:jsonb;not null"`
	OptimizationMetrics datatypesJSON  `gorm:"type:jsonb;not null"`
	SimulationParams    datatypesJSON  `gorm:"type:jsonb"`
	GeneratedBy         string         `gorm:"size:64;not null"`
	AIModelInfo         datatypesJSON  `gorm:"type:jsonb;not null"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// TableName pins the table name independent of Go naming conventions.
func (PlanRecord) TableName() string { return "induction_plans" }

// BeforeCreate assigns a UUID when one was not supplied.
func (r *PlanRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func marshalJSON(v interface{}) datatypesJSON {
	b, _ := json.Marshal(v)
	return datatypesJSON(b)
}

func unmarshalJSON[T any](raw datatypesJSON, out *T) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, out)
}

// toTrainRecord converts a domain.Train into its persisted row shape.
func toTrainRecord(t domain.Train) TrainRecord {
	rec := TrainRecord{
		Code:        t.Code,
		Fitness:     marshalJSON(t.Fitness),
		Maintenance: marshalJSON(t.Maintenance),
		Cleaning:    marshalJSON(t.Cleaning),
		Operational: marshalJSON(t.Operational),
		Branding:    marshalJSON(t.Branding),
	}
	if t.ID != "" {
		rec.ID = t.ID
	}
	if t.Telemetry != nil {
		rec.Telemetry = marshalJSON(t.Telemetry)
	}
	return rec
}

// toDomain converts a persisted row back into a domain.Train.
func (r TrainRecord) toDomain() domain.Train {
	t := domain.Train{ID: r.ID, Code: r.Code}
	unmarshalJSON(r.Fitness, &t.Fitness)
	unmarshalJSON(r.Maintenance, &t.Maintenance)
	unmarshalJSON(r.Cleaning, &t.Cleaning)
	unmarshalJSON(r.Operational, &t.Operational)
	unmarshalJSON(r.Branding, &t.Branding)
	if len(r.Telemetry) > 0 {
		var telemetry domain.TelemetrySnapshot
		unmarshalJSON(r.Telemetry, &telemetry)
		t.Telemetry = &telemetry
	}
	return t
}

// toPlanRecord converts a domain.InductionPlan into its persisted row shape.
// Ranked entries keep only the train's stable identifier (a weak
// reference, per §3's ownership rule) plus the fields the plan itself
// owns; resolving the referenced Train happens at read time.
func toPlanRecord(p domain.InductionPlan) PlanRecord {
	rec := PlanRecord{
		PlanDate:            p.PlanDate,
		GeneratedAt:         p.GeneratedAt,
		Status:              string(p.Status),
		RankedTrains:        marshalJSON(p.RankedTrains),
		Alerts:              marshalJSON(p.Alerts),
		OptimizationMetrics: marshalJSON(p.OptimizationMetrics),
		GeneratedBy:         p.GeneratedBy,
		AIModelInfo:         marshalJSON(p.AIModelInfo),
	}
	if p.ID != "" {
		rec.ID = p.ID
	}
	if p.SimulationParams != nil {
		rec.SimulationParams = marshalJSON(p.SimulationParams)
	}
	return rec
}

func (r PlanRecord) toDomain() domain.InductionPlan {
	p := domain.InductionPlan{
		ID:          r.ID,
		PlanDate:    r.PlanDate,
		GeneratedAt: r.GeneratedAt,
		Status:      domain.PlanStatus(r.Status),
		GeneratedBy: r.GeneratedBy,
	}
	unmarshalJSON(r.RankedTrains, &p.RankedTrains)
	unmarshalJSON(r.Alerts, &p.Alerts)
	unmarshalJSON(r.OptimizationMetrics, &p.OptimizationMetrics)
	unmarshalJSON(r.AIModelInfo, &p.AIModelInfo)
	if len(r.SimulationParams) > 0 {
		var sp domain.SimulationParams
		unmarshalJSON(r.SimulationParams, &sp)
		p.SimulationParams = &sp
	}
	return p
}
