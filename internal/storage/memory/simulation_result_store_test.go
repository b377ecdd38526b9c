package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

func testResult(id, goalID string, runAt int64, prob float64) *domain.SimulationResult {
	return &domain.SimulationResult{
		SimulationID:       id,
		GoalID:             goalID,
		RunAt:              time.Unix(runAt, 0).UTC(),
		Config:             domain.SimulationConfig{NumPaths: 1000, RequestedPaths: 1000, Seed: 42},
		MedianOutcome:      1_000_000,
		SuccessProbability: prob,
	}
}

func TestSimulationResultStore_InsertAndGet(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testResult("s1", "g1", 1000, 55.5)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SuccessProbability != 55.5 || got.Config.Seed != 42 {
		t.Errorf("Result mismatch: %+v", got)
	}

	if err := store.Insert(ctx, testResult("s1", "g1", 2000, 10)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSimulationResultStore_GetLatest(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	_ = store.Insert(ctx, testResult("s1", "g1", 1000, 40))
	_ = store.Insert(ctx, testResult("s3", "g1", 3000, 60))
	_ = store.Insert(ctx, testResult("s2", "g1", 2000, 50))
	_ = store.Insert(ctx, testResult("x1", "g2", 9000, 99))

	latest, err := store.GetLatest(ctx, "g1", 2)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("len = %d, want 2", len(latest))
	}
	if latest[0].SimulationID != "s3" || latest[1].SimulationID != "s2" {
		t.Errorf("Expected s3, s2; got %s, %s", latest[0].SimulationID, latest[1].SimulationID)
	}

	none, err := store.GetLatest(ctx, "g3", 1)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no results, got %d", len(none))
	}

	if _, err := store.GetLatest(ctx, "g1", 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}

func TestSimulationResultStore_GetByGoalIDAndDelete(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	_ = store.Insert(ctx, testResult("s2", "g1", 2000, 50))
	_ = store.Insert(ctx, testResult("s1", "g1", 1000, 40))
	_ = store.Insert(ctx, testResult("x1", "g2", 1000, 99))

	all, err := store.GetByGoalID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByGoalID failed: %v", err)
	}
	if len(all) != 2 || all[0].SimulationID != "s1" {
		t.Errorf("Expected run_at ASC order, got %+v", all)
	}

	if err := store.DeleteByGoalID(ctx, "g1"); err != nil {
		t.Fatalf("DeleteByGoalID failed: %v", err)
	}
	all, _ = store.GetByGoalID(ctx, "g1")
	other, _ := store.GetByGoalID(ctx, "g2")
	if len(all) != 0 || len(other) != 1 {
		t.Errorf("Expected only g1 results removed, got g1=%d g2=%d", len(all), len(other))
	}
}
