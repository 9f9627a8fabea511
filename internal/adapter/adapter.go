// Package adapter implements the thin HTTP-JSON client to a pluggable
// remote optimizer described in spec §4.7. It must always produce a
// plan: connection failure, timeout, breaker-open, or a malformed body
// fall back silently to the local Optimizer.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/metrorail/induction-planner/internal/domain"
	"github.com/metrorail/induction-planner/internal/optimizer"
)

// Adapter decides between a remote optimizer and the local fallback.
type Adapter struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker
}

// Config controls the adapter's endpoint and timeout.
type Config struct {
	BaseURL string        // empty means "always use local"
	Timeout time.Duration // default 60s per spec §4.7
}

// New creates an Adapter. When cfg.BaseURL is empty, Run always takes
// the local path without attempting any network call.
func New(cfg Config, logger *slog.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	breakerSettings := gobreaker.Settings{
		Name:        "external-optimizer",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Adapter{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

// request is the wire shape sent to the remote optimizer.
type request struct {
	Trains      []domain.Train         `json:"trains"`
	Constraints optimizer.Constraints  `json:"constraints"`
}

// response mirrors the local Optimizer's Output.
type response struct {
	RankedTrains []domain.RankedEntry       `json:"rankedTrains"`
	Metrics      domain.OptimizationMetrics `json:"optimizationMetrics"`
	ModelInfo    domain.ModelInfo           `json:"aiModelInfo"`
}

// Run attempts the remote optimizer and falls back to the local
// Optimizer on any failure, per spec §4.7/§7. It never returns an error:
// availability beats optimality.
func (a *Adapter) Run(ctx context.Context, trains []domain.Train, constraints optimizer.Constraints, now time.Time) optimizer.Output {
	if a.baseURL == "" {
		return optimizer.Run(ctx, trains, constraints, now)
	}

	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.callRemote(ctx, trains, constraints)
	})
	if err != nil {
		a.logger.Warn("external optimizer unavailable, falling back to local optimizer",
			"error", err, "breakerState", a.breaker.State().String())
		return optimizer.Run(ctx, trains, constraints, now)
	}

	resp := out.(response)
	return optimizer.Output{
		RankedTrains: resp.RankedTrains,
		Metrics:      resp.Metrics,
		ModelInfo:    resp.ModelInfo,
	}
}

func (a *Adapter) callRemote(ctx context.Context, trains []domain.Train, constraints optimizer.Constraints) (response, error) {
	body, err := json.Marshal(request{Trains: trains, Constraints: constraints})
	if err != nil {
		return response{}, fmt.Errorf("marshal optimizer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/optimize", bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("build optimizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("call external optimizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return response{}, fmt.Errorf("external optimizer returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("decode optimizer response: %w", err)
	}
	if !wellFormed(out) {
		return response{}, errors.New("external optimizer response is not well-formed")
	}
	return out, nil
}

// wellFormed applies the minimal structural checks spec §4.7 requires
// before trusting a remote response: rank totality and a non-empty
// algorithm name.
func wellFormed(r response) bool {
	if r.ModelInfo.Algorithm == "" {
		return false
	}
	seen := make(map[int]bool, len(r.RankedTrains))
	for _, entry := range r.RankedTrains {
		if entry.Rank <= 0 || entry.Rank > len(r.RankedTrains) || seen[entry.Rank] {
			return false
		}
		seen[entry.Rank] = true
	}
	return true
}
