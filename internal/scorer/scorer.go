// Package scorer converts evaluated constraint state plus fleet-wide
// context into a numeric score, a confidence percentage, and a
// reproducible human-readable reasoning trace. Reasoning text is part
// of the wire contract: tests assert against its exact phrasing, so
// changes here must stay in lock-step with the phrases below.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/evaluator"
)

// FleetContext carries pool-wide data the Scorer needs beyond one train.
type FleetContext struct {
	MeanMileage float64
}

// Result is one train's score, confidence, and reasoning.
type Result struct {
	Score      float64
	Confidence int
	Reasoning  string
}

type phrase struct {
	order int
	text  string
}

// Score computes Result for a single train. It is pure: the same
// (train, ev, ctx) always yields the same Result.
func Score(train domain.Train, ev evaluator.Result, ctx FleetContext) Result {
	var total float64
	var phrases []phrase

	if ev.FitnessValid {
		total += 30
		phrases = append(phrases, phrase{0, "Fitness certificate valid"})
	}

	if train.Maintenance.Status == domain.MaintenanceOperational {
		total += 25
		phrases = append(phrases, phrase{1, "Status: Operational"})
		if !ev.MaintenanceDue {
			total += 10
			phrases = append(phrases, phrase{2, "No maintenance due"})
		}
	}

	mileageDelta := math.Abs(float64(train.Operational.CurrentMileage) - ctx.MeanMileage)
	mileageTerm := 15 - mileageDelta/1000
	if mileageTerm < 0 {
		mileageTerm = 0
	}
	total += mileageTerm
	phrases = append(phrases, phrase{3, fmt.Sprintf("Current mileage: %skm", formatThousands(train.Operational.CurrentMileage))})

	if train.Branding.HasBranding {
		priority := train.BrandingPriority()
		total += 2 * float64(priority)
		phrases = append(phrases, phrase{4, fmt.Sprintf("Branding priority: %d/5", priority)})
	}

	var perfReliability float64
	if train.Telemetry != nil {
		perfReliability = 0.1*train.Telemetry.PerformanceScore + 0.1*train.Telemetry.ReliabilityScore
		if perfReliability != 0 {
			total += perfReliability
			phrases = append(phrases, phrase{5, fmt.Sprintf("Performance/reliability contribution: %.1f", perfReliability)})
		}
	}

	if train.Cleaning.Status == domain.CleaningClean {
		total += 5
		phrases = append(phrases, phrase{6, "Cleaning status: Clean"})
	}

	sort.SliceStable(phrases, func(i, j int) bool { return phrases[i].order < phrases[j].order })

	texts := make([]string, 0, len(phrases)+1)
	for _, p := range phrases {
		texts = append(texts, p.text)
	}
	rounded := int(math.Round(total))
	texts = append(texts, fmt.Sprintf("Overall optimization score: %d", rounded))

	return Result{
		Score:      total,
		Confidence: clamp(rounded, 60, 100),
		Reasoning:  strings.Join(texts, "; "),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// formatThousands renders an integer with comma thousands separators,
// matching the "4,850km" style in the reasoning phrases.
func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
