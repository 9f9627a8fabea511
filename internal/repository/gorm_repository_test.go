package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metrorail/induction-planner/internal/common/testutil"
	"github.com/metrorail/induction-planner/internal/domain"
)

func TestGormTrainRepository_UpsertAndFind(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	repo := NewGormTrainRepository(db)
	train := testutil.NewTestTrain("TS-01")

	created, err := repo.Upsert(context.Background(), train)
	require.NoError(t, err)
	testutil.AssertValidUUID(t, created.ID)
	testutil.AssertValidTrainCode(t, created.Code)

	found, err := repo.FindByCode(context.Background(), "TS-01")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.Fitness.Valid)

	found.Operational.CurrentMileage = 75000
	updated, err := repo.Upsert(context.Background(), found)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.EqualValues(t, 75000, updated.Operational.CurrentMileage)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(context.Background(), created.ID))
	_, err = repo.FindByCode(context.Background(), "TS-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormPlanRepository_InsertConflictAndHistory(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	trainRepo := NewGormTrainRepository(db)
	train, err := trainRepo.Upsert(context.Background(), testutil.NewTestTrain("TS-02"))
	require.NoError(t, err)

	planRepo := NewGormPlanRepository(db)
	plan := testutil.NewTestPlan(train)
	plan.PlanDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	created, err := planRepo.Insert(context.Background(), plan, false)
	require.NoError(t, err)
	testutil.AssertValidUUID(t, created.ID)
	testutil.AssertDenseRanking(t, created.RankedTrains)

	_, err = planRepo.Insert(context.Background(), plan, false)
	assert.ErrorIs(t, err, ErrPlanDateConflict)

	forced, err := planRepo.Insert(context.Background(), plan, true)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, forced.ID)

	latest, err := planRepo.FindLatestFinalized(context.Background())
	require.NoError(t, err)
	assert.Equal(t, forced.ID, latest.ID)

	byDate, err := planRepo.FindFinalizedByDate(context.Background(), plan.PlanDate)
	require.NoError(t, err)
	assert.Equal(t, forced.ID, byDate.ID)

	plans, total, err := planRepo.ListFinalized(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, plans, 2)
}
