package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/metrorail/induction-planner/internal/domain"
)

// GormTrainRepository implements TrainRepository over GORM/Postgres.
type GormTrainRepository struct {
	db *gorm.DB
}

// NewGormTrainRepository creates a new GORM-backed train repository.
func NewGormTrainRepository(db *gorm.DB) *GormTrainRepository {
	return &GormTrainRepository{db: db}
}

func (r *GormTrainRepository) ListAll(ctx context.Context) ([]domain.Train, error) {
	var records []TrainRecord
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list trains: %w", err)
	}
	out := make([]domain.Train, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *GormTrainRepository) FindByCode(ctx context.Context, code string) (domain.Train, error) {
	var rec TrainRecord
	if err := r.db.WithContext(ctx).First(&rec, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Train{}, ErrNotFound
		}
		return domain.Train{}, fmt.Errorf("find train by code: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormTrainRepository) FindByID(ctx context.Context, id string) (domain.Train, error) {
	var rec TrainRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Train{}, ErrNotFound
		}
		return domain.Train{}, fmt.Errorf("find train by id: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormTrainRepository) Upsert(ctx context.Context, train domain.Train) (domain.Train, error) {
	if !domain.ValidTrainCode(train.Code) {
		return domain.Train{}, ErrInvalidTrainCode
	}
	rec := toTrainRecord(train)
	if rec.ID == "" {
		if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return domain.Train{}, fmt.Errorf("create train: %w", err)
		}
		return rec.toDomain(), nil
	}
	if err := r.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return domain.Train{}, fmt.Errorf("update train: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormTrainRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&TrainRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete train: %w", err)
	}
	return nil
}
