package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/domain"
)

func healthyTrain(code string, now time.Time) domain.Train {
	return domain.Train{
		Code:        code,
		Fitness:     domain.Fitness{Valid: true, Expiry: now.AddDate(0, 6, 0)},
		Maintenance: domain.Maintenance{Status: domain.MaintenanceOperational, NextMaintenanceDue: now.AddDate(0, 1, 0)},
		Cleaning:    domain.Cleaning{Status: domain.CleaningClean},
		Operational: domain.Operational{AvailableForService: true},
	}
}

func TestGenerate_HealthyTrainProducesNoAlerts(t *testing.T) {
	now := time.Now()
	alerts := Generate([]domain.Train{healthyTrain("TS-01", now)}, now)

	assert.Empty(t, alerts)
}

func TestGenerate_ExpiredFitnessIsCritical(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Fitness.Expiry = now.AddDate(0, 0, -1)

	out := Generate([]domain.Train{train}, now)

	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertCritical, out[0].Type)
	assert.Equal(t, 5, out[0].Severity)
	assert.Contains(t, out[0].Message, "expired")
}

func TestGenerate_ExpiringWithinThreeDaysIsCritical(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Fitness.Expiry = now.AddDate(0, 0, 2)

	out := Generate([]domain.Train{train}, now)

	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertCritical, out[0].Type)
	assert.Equal(t, 5, out[0].Severity)
}

func TestGenerate_ExpiringWithinSevenDaysIsWarning(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Fitness.Expiry = now.AddDate(0, 0, 6)

	out := Generate([]domain.Train{train}, now)

	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertWarning, out[0].Type)
	assert.Equal(t, 3, out[0].Severity)
}

func TestGenerate_MaintenanceDueAddsWarningAlert(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Maintenance.Status = domain.MaintenanceDue

	out := Generate([]domain.Train{train}, now)

	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertWarning, out[0].Type)
	assert.Contains(t, out[0].Message, "maintenance is due")
}

func TestGenerate_UnavailableForServiceAddsInfoAlert(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Operational.AvailableForService = false

	out := Generate([]domain.Train{train}, now)

	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertInfo, out[0].Type)
	assert.Equal(t, 2, out[0].Severity)
}

func TestGenerate_SortsAlertsBySeverityDescending(t *testing.T) {
	now := time.Now()
	unavailable := healthyTrain("TS-01", now)
	unavailable.Operational.AvailableForService = false

	expired := healthyTrain("TS-02", now)
	expired.Fitness.Expiry = now.AddDate(0, 0, -1)

	dueMaintenance := healthyTrain("TS-03", now)
	dueMaintenance.Maintenance.Status = domain.MaintenanceDue

	out := Generate([]domain.Train{unavailable, expired, dueMaintenance}, now)

	require.Len(t, out, 3)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Severity, out[i].Severity)
	}
	assert.Equal(t, 5, out[0].Severity)
}

func TestGenerate_MultipleAlertsPerTrainAreAllEmitted(t *testing.T) {
	now := time.Now()
	train := healthyTrain("TS-01", now)
	train.Fitness.Expiry = now.AddDate(0, 0, -1)
	train.Maintenance.Status = domain.MaintenanceDue
	train.Operational.AvailableForService = false

	out := Generate([]domain.Train{train}, now)

	assert.Len(t, out, 3)
}
