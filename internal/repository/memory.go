package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metrorail/induction-planner/internal/domain"
)

// MemoryTrainRepository is an in-memory TrainRepository, substituted in
// unit tests the way spec §9 describes the External Optimizer Adapter
// being substituted: a same-interface stand-in with no external
// dependency.
type MemoryTrainRepository struct {
	mu     sync.RWMutex
	trains map[string]domain.Train
}

// NewMemoryTrainRepository creates an empty in-memory train repository.
func NewMemoryTrainRepository() *MemoryTrainRepository {
	return &MemoryTrainRepository{trains: make(map[string]domain.Train)}
}

func (m *MemoryTrainRepository) ListAll(ctx context.Context) ([]domain.Train, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Train, 0, len(m.trains))
	for _, t := range m.trains {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryTrainRepository) FindByCode(ctx context.Context, code string) (domain.Train, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trains {
		if t.Code == code {
			return t, nil
		}
	}
	return domain.Train{}, ErrNotFound
}

func (m *MemoryTrainRepository) FindByID(ctx context.Context, id string) (domain.Train, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trains[id]
	if !ok {
		return domain.Train{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryTrainRepository) Upsert(ctx context.Context, train domain.Train) (domain.Train, error) {
	if !domain.ValidTrainCode(train.Code) {
		return domain.Train{}, ErrInvalidTrainCode
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if train.ID == "" {
		train.ID = uuid.New().String()
	}
	m.trains[train.ID] = train
	return train, nil
}

func (m *MemoryTrainRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trains, id)
	return nil
}

// MemoryPlanRepository is an in-memory PlanRepository. Insert serializes
// on an internal mutex to provide the same atomicity guarantee spec
// §4.8 requires of production repositories.
type MemoryPlanRepository struct {
	mu    sync.Mutex
	plans []domain.InductionPlan
}

// NewMemoryPlanRepository creates an empty in-memory plan repository.
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{}
}

func (m *MemoryPlanRepository) Insert(ctx context.Context, plan domain.InductionPlan, forceRegenerate bool) (domain.InductionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if plan.Status == domain.PlanFinalized && !forceRegenerate {
		for _, p := range m.plans {
			if p.Status == domain.PlanFinalized && sameDate(p.PlanDate, plan.PlanDate) {
				return domain.InductionPlan{}, ErrPlanDateConflict
			}
		}
	}

	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	m.plans = append(m.plans, plan)
	return plan, nil
}

func (m *MemoryPlanRepository) FindByID(ctx context.Context, id string) (domain.InductionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.InductionPlan{}, ErrNotFound
}

func (m *MemoryPlanRepository) FindLatestFinalized(ctx context.Context) (domain.InductionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	finalized := m.finalizedLocked()
	if len(finalized) == 0 {
		return domain.InductionPlan{}, ErrNotFound
	}
	return finalized[0], nil
}

func (m *MemoryPlanRepository) ListFinalized(ctx context.Context, limit, page int) ([]domain.InductionPlan, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	finalized := m.finalizedLocked()
	total := int64(len(finalized))

	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= len(finalized) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(finalized) {
		end = len(finalized)
	}
	return finalized[start:end], total, nil
}

func (m *MemoryPlanRepository) FindFinalizedByDate(ctx context.Context, date time.Time) (domain.InductionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.finalizedLocked() {
		if sameDate(p.PlanDate, date) {
			return p, nil
		}
	}
	return domain.InductionPlan{}, ErrNotFound
}

// finalizedLocked returns FINALIZED plans newest-first; caller holds m.mu.
func (m *MemoryPlanRepository) finalizedLocked() []domain.InductionPlan {
	var out []domain.InductionPlan
	for _, p := range m.plans {
		if p.Status == domain.PlanFinalized {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlanDate.Equal(out[j].PlanDate) {
			return out[i].PlanDate.After(out[j].PlanDate)
		}
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
