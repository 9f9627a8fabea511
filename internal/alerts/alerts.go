// Package alerts emits severity-graded constraint-violation notices
// from raw trainset state, independent of the ranking the Optimizer
// produces. Like evaluator, scorer and optimizer it performs no I/O.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/evaluator"
)

// Generate produces alerts for every train, sorted by severity DESC and
// stable within severity.
func Generate(trains []domain.Train, now time.Time) []domain.Alert {
	var out []domain.Alert

	for _, t := range trains {
		ev := evaluator.Evaluate(t, now)

		switch {
		case ev.DaysToExpiry < 0:
			out = append(out, domain.Alert{
				Type:      domain.AlertCritical,
				Message:   fmt.Sprintf("%s fitness certificate has expired", t.Code),
				TrainCode: t.Code,
				Severity:  5,
			})
		case ev.DaysToExpiry <= 3:
			out = append(out, domain.Alert{
				Type:      domain.AlertCritical,
				Message:   fmt.Sprintf("%s fitness certificate expires in %d days", t.Code, ev.DaysToExpiry),
				TrainCode: t.Code,
				Severity:  5,
			})
		case ev.DaysToExpiry <= 7:
			out = append(out, domain.Alert{
				Type:      domain.AlertWarning,
				Message:   fmt.Sprintf("%s fitness certificate expires in %d days", t.Code, ev.DaysToExpiry),
				TrainCode: t.Code,
				Severity:  3,
			})
		}

		if ev.MaintenanceDue {
			out = append(out, domain.Alert{
				Type:      domain.AlertWarning,
				Message:   fmt.Sprintf("%s maintenance is due", t.Code),
				TrainCode: t.Code,
				Severity:  4,
			})
		}

		if !t.Operational.AvailableForService {
			out = append(out, domain.Alert{
				Type:      domain.AlertInfo,
				Message:   fmt.Sprintf("%s is not available for service", t.Code),
				TrainCode: t.Code,
				Severity:  2,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out
}
