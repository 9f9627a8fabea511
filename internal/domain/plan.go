package domain

import "time"

// PlanStatus is the lifecycle state of an InductionPlan.
type PlanStatus string

const (
	PlanDraft      PlanStatus = "DRAFT"
	PlanFinalized  PlanStatus = "FINALIZED"
	PlanSimulation PlanStatus = "SIMULATION"
)

// AlertType is the severity class of an alert.
type AlertType string

const (
	AlertCritical AlertType = "CRITICAL"
	AlertWarning  AlertType = "WARNING"
	AlertInfo     AlertType = "INFO"
)

// Alert is a constraint-violation notice, independent of ranking.
type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	TrainCode string    `json:"trainCode"`
	Severity  int       `json:"severity"` // 1..5
}

// EntryConstraints is the per-constraint attribution carried on a
// ranked entry so the plan is explainable without re-evaluating.
type EntryConstraints struct {
	FitnessValid     bool    `json:"fitnessValid"`
	MaintenanceReady bool    `json:"maintenanceReady"`
	CleaningStatus   string  `json:"cleaningStatus"`
	BrandingPriority int     `json:"brandingPriority"`
	MileageBalance   float64 `json:"mileageBalance"`
}

// RankedEntry is one trainset's position in a plan's ranking.
type RankedEntry struct {
	TrainRef         string           `json:"trainRef"` // stable train identifier
	TrainCode        string           `json:"trainCode"`
	Rank             int              `json:"rank"` // 1-based, dense, unique
	Reasoning        string           `json:"reasoning"`
	ConfidenceScore  int              `json:"confidenceScore"` // 60..100
	Constraints      EntryConstraints `json:"constraints"`
}

// OptimizationMetrics summarizes one optimization run.
type OptimizationMetrics struct {
	TotalTrainsEvaluated int     `json:"totalTrainsEvaluated"`
	ConstraintsSatisfied int     `json:"constraintsSatisfied"`
	AverageConfidence    float64 `json:"averageConfidence"`
	ProcessingTimeMs     int64   `json:"processingTimeMs"`
}

// ModelInfo identifies which algorithm produced a ranking.
type ModelInfo struct {
	Version    string                 `json:"version"`
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// SimulationParams records the hypothetical input to a simulated plan.
type SimulationParams struct {
	TargetTrain   string         `json:"targetTrain"`
	Modifications Modifications  `json:"modifications"`
}

// InductionPlan is an immutable record of one planning decision.
type InductionPlan struct {
	ID                  string              `json:"id"`
	PlanDate            time.Time           `json:"planDate"`
	GeneratedAt         time.Time           `json:"generatedAt"`
	Status              PlanStatus          `json:"status"`
	RankedTrains        []RankedEntry       `json:"rankedTrains"`
	Alerts              []Alert             `json:"alerts"`
	OptimizationMetrics OptimizationMetrics `json:"optimizationMetrics"`
	SimulationParams    *SimulationParams   `json:"simulationParams,omitempty"`
	GeneratedBy         string              `json:"generatedBy"`
	AIModelInfo         ModelInfo           `json:"aiModelInfo"`
}

// FallbackAlgorithm is the local Optimizer's reported algorithm name,
// part of the wire contract per spec §8's fallback-transparency law.
const FallbackAlgorithm = "Rule-Based Weighted Scoring"

// FallbackVersion is the local Optimizer's reported model version.
const FallbackVersion = "1.0-fallback"
