// Package repository defines the persistence contracts named in spec
// §4.8 and their GORM-backed (production) and in-memory (test) forms.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/metrorail/induction-planner/internal/domain"
)

// ErrNotFound is returned when a lookup finds nothing.
var ErrNotFound = errors.New("not found")

// ErrInvalidTrainCode is returned by Upsert when a train's code does
// not match the documented ^TS-\d{2}$ format.
var ErrInvalidTrainCode = errors.New("invalid train code, expected format TS-NN")

// ErrPlanDateConflict is returned when a FINALIZED plan already exists
// for the requested date and the caller did not force regeneration.
var ErrPlanDateConflict = errors.New("finalized plan already exists for date")

// TrainRepository is the persistence contract for trainsets.
type TrainRepository interface {
	ListAll(ctx context.Context) ([]domain.Train, error)
	FindByCode(ctx context.Context, code string) (domain.Train, error)
	FindByID(ctx context.Context, id string) (domain.Train, error)
	Upsert(ctx context.Context, train domain.Train) (domain.Train, error)
	Delete(ctx context.Context, id string) error
}

// PlanRepository is the persistence contract for induction plans.
//
// Insert must be atomic with respect to the (planDate, FINALIZED)
// uniqueness check: two concurrent Generate calls for the same date
// must not both succeed when forceRegenerate is false. Implementations
// satisfy this either with a partial unique index translated into
// ErrPlanDateConflict, or an advisory lock keyed on planDate.
type PlanRepository interface {
	Insert(ctx context.Context, plan domain.InductionPlan, forceRegenerate bool) (domain.InductionPlan, error)
	FindByID(ctx context.Context, id string) (domain.InductionPlan, error)
	FindLatestFinalized(ctx context.Context) (domain.InductionPlan, error)
	ListFinalized(ctx context.Context, limit, page int) ([]domain.InductionPlan, int64, error)
	FindFinalizedByDate(ctx context.Context, date time.Time) (domain.InductionPlan, error)
}
