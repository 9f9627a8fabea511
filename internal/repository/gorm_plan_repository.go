package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/metrorail/induction-planner/internal/domain"
)

// GormPlanRepository implements PlanRepository over GORM/Postgres.
//
// Uniqueness per (planDate, FINALIZED) for non-forced inserts is
// enforced inside Insert's transaction: it first takes a
// transaction-scoped Postgres advisory lock keyed on the plan date, so
// concurrent non-forced Inserts for the same date run their
// check-then-insert one at a time and the later one sees the earlier
// one's row. There is no unique index on plan_date, since a forced
// insert adds a second FINALIZED plan for the same date.
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GORM-backed plan repository.
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

func (r *GormPlanRepository) Insert(ctx context.Context, plan domain.InductionPlan, forceRegenerate bool) (domain.InductionPlan, error) {
	var result domain.InductionPlan

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan.Status == domain.PlanFinalized && !forceRegenerate {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", plan.PlanDate.Format("2006-01-02")).Error; err != nil {
				return fmt.Errorf("lock plan date: %w", err)
			}
			var existing PlanRecord
			err := tx.
				Where("plan_date = ? AND status = ?", plan.PlanDate, string(domain.PlanFinalized)).
				First(&existing).Error
			if err == nil {
				return ErrPlanDateConflict
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("check existing plan: %w", err)
			}
		}

		rec := toPlanRecord(plan)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrPlanDateConflict
			}
			return fmt.Errorf("insert plan: %w", err)
		}
		result = rec.toDomain()
		return nil
	})

	if err != nil {
		return domain.InductionPlan{}, err
	}
	return result, nil
}

func (r *GormPlanRepository) FindByID(ctx context.Context, id string) (domain.InductionPlan, error) {
	var rec PlanRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.InductionPlan{}, ErrNotFound
		}
		return domain.InductionPlan{}, fmt.Errorf("find plan by id: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormPlanRepository) FindLatestFinalized(ctx context.Context) (domain.InductionPlan, error) {
	var rec PlanRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.PlanFinalized)).
		Order("plan_date DESC, generated_at DESC, created_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.InductionPlan{}, ErrNotFound
		}
		return domain.InductionPlan{}, fmt.Errorf("find latest finalized plan: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormPlanRepository) ListFinalized(ctx context.Context, limit, page int) ([]domain.InductionPlan, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&PlanRecord{}).
		Where("status = ?", string(domain.PlanFinalized)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count finalized plans: %w", err)
	}

	var records []PlanRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.PlanFinalized)).
		Order("plan_date DESC, generated_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list finalized plans: %w", err)
	}

	out := make([]domain.InductionPlan, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, total, nil
}

func (r *GormPlanRepository) FindFinalizedByDate(ctx context.Context, date time.Time) (domain.InductionPlan, error) {
	var rec PlanRecord
	err := r.db.WithContext(ctx).
		Where("plan_date = ? AND status = ?", date, string(domain.PlanFinalized)).
		Order("generated_at DESC, created_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.InductionPlan{}, ErrNotFound
		}
		return domain.InductionPlan{}, fmt.Errorf("find finalized plan by date: %w", err)
	}
	return rec.toDomain(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
