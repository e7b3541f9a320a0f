package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

func TestAddCustomExercise(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	ctx := context.Background()

	ex := &models.Exercise{
		Name:         "Deficit Pushup",
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentBodyweight,
		Difficulty:   models.DifficultyIntermediate,
		IsCustom:     false, // must be forced true
	}
	id, err := em.AddCustomExercise(ctx, ex)
	if err != nil {
		t.Fatalf("AddCustomExercise failed: %v", err)
	}
	got, err := em.GetExerciseByID(ctx, id)
	if err != nil {
		t.Fatalf("GetExerciseByID failed: %v", err)
	}
	if !got.IsCustom {
		t.Error("custom exercise stored with IsCustom=false")
	}
}

func TestBuiltinImmutable(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	ctx := context.Background()

	builtins, err := storage.GetByIndex[models.Exercise](ctx, store,
		storage.CollectionExercises, "is_custom", false)
	if err != nil {
		t.Fatalf("builtin lookup failed: %v", err)
	}
	if len(builtins) == 0 {
		t.Fatal("no seeded built-in exercises")
	}
	builtin := builtins[0]

	builtin.Name = "Renamed"
	if err := em.UpdateExercise(ctx, builtin); !errors.Is(err, ErrBuiltinImmutable) {
		t.Errorf("UpdateExercise: expected ErrBuiltinImmutable, got %v", err)
	}
	if err := em.DeleteExercise(ctx, builtin.ID); !errors.Is(err, ErrBuiltinImmutable) {
		t.Errorf("DeleteExercise: expected ErrBuiltinImmutable, got %v", err)
	}
}

func TestDeleteExerciseInUseBySets(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	wm := NewWorkoutManager(store, events.NewBus())
	ctx := context.Background()

	exID := addExercise(t, store, "Referenced Press", models.CategoryChest, models.DifficultyBeginner)
	if _, err := wm.StartNewWorkout(ctx, "Ref"); err != nil {
		t.Fatalf("StartNewWorkout failed: %v", err)
	}
	if err := wm.AddExerciseToWorkout(ctx, exID, 1, 8, 60); err != nil {
		t.Fatalf("AddExerciseToWorkout failed: %v", err)
	}
	if _, err := wm.LogSet(ctx, exID, models.Set{Reps: 8, Weight: 60}); err != nil {
		t.Fatalf("LogSet failed: %v", err)
	}

	if err := em.DeleteExercise(ctx, exID); !errors.Is(err, ErrExerciseInUse) {
		t.Errorf("expected ErrExerciseInUse, got %v", err)
	}
}

func TestDeleteExerciseInUseByPlan(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	ctx := context.Background()

	exID := addExercise(t, store, "Planned Press", models.CategoryChest, models.DifficultyBeginner)
	_, err := store.Add(ctx, storage.CollectionPlans, &models.Plan{
		Name:       "Uses Press",
		Category:   models.CategoryChest,
		Difficulty: models.DifficultyBeginner,
		Exercises:  []models.PlanExercise{{ExerciseID: exID, TargetSets: 3, TargetReps: 8}},
	})
	if err != nil {
		t.Fatalf("plan add failed: %v", err)
	}

	if err := em.DeleteExercise(ctx, exID); !errors.Is(err, ErrExerciseInUse) {
		t.Errorf("expected ErrExerciseInUse, got %v", err)
	}
}

func TestDeleteUnusedCustomExercise(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	ctx := context.Background()

	exID := addExercise(t, store, "Unused Press", models.CategoryChest, models.DifficultyBeginner)
	if err := em.DeleteExercise(ctx, exID); err != nil {
		t.Fatalf("DeleteExercise failed: %v", err)
	}
	if _, err := em.GetExerciseByID(ctx, exID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("exercise still present: %v", err)
	}
}

func TestSearchExercises(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	ctx := context.Background()

	addExercise(t, store, "Zercher Squat Special", models.CategoryLegs, models.DifficultyAdvanced)

	matches, err := em.SearchExercises(ctx, "zercher", 10)
	if err != nil {
		t.Fatalf("SearchExercises failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Zercher Squat Special" {
		t.Errorf("search results: %+v", matches)
	}
}

func TestEpleyOneRepMax(t *testing.T) {
	if got := EpleyOneRepMax(100, 1); got != 100 {
		t.Errorf("1RM for a single = %v, want exactly the weight", got)
	}
	if got := EpleyOneRepMax(100, 0); got != 0 {
		t.Errorf("zero reps should estimate 0, got %v", got)
	}
	if got := EpleyOneRepMax(0, 5); got != 0 {
		t.Errorf("zero weight should estimate 0, got %v", got)
	}
	if got, want := EpleyOneRepMax(100, 10), 100*(1+10.0/30); got != want {
		t.Errorf("EpleyOneRepMax(100, 10) = %v, want %v", got, want)
	}

	// More reps at the same weight always estimates a higher max.
	prev := 0.0
	for reps := 1; reps <= 12; reps++ {
		est := EpleyOneRepMax(80, reps)
		if est <= prev && reps > 1 {
			t.Errorf("estimate not monotonic at %d reps: %v <= %v", reps, est, prev)
		}
		prev = est
	}
}

func TestExerciseStats(t *testing.T) {
	store := setupStore(t)
	em := NewExerciseManager(store)
	wm := NewWorkoutManager(store, events.NewBus())
	ctx := context.Background()

	exID := addExercise(t, store, "Stats Press", models.CategoryChest, models.DifficultyBeginner)
	if _, err := wm.StartNewWorkout(ctx, "Stats"); err != nil {
		t.Fatalf("StartNewWorkout failed: %v", err)
	}
	if err := wm.AddExerciseToWorkout(ctx, exID, 3, 8, 60); err != nil {
		t.Fatalf("AddExerciseToWorkout failed: %v", err)
	}

	for _, s := range []models.Set{
		{Reps: 10, Weight: 20, IsWarmup: true},
		{Reps: 8, Weight: 60},
		{Reps: 5, Weight: 80},
	} {
		if _, err := wm.LogSet(ctx, exID, s); err != nil {
			t.Fatalf("LogSet failed: %v", err)
		}
	}
	wm.StopRest()

	stats, err := em.GetExerciseStats(ctx, exID)
	if err != nil {
		t.Fatalf("GetExerciseStats failed: %v", err)
	}
	if stats.TotalSets != 2 {
		t.Errorf("TotalSets = %d, want 2 (warmup excluded)", stats.TotalSets)
	}
	if stats.MaxWeight != 80 {
		t.Errorf("MaxWeight = %v, want 80", stats.MaxWeight)
	}
	if stats.MaxReps != 8 {
		t.Errorf("MaxReps = %d, want 8", stats.MaxReps)
	}
	if want := EpleyOneRepMax(80, 5); stats.EstimatedOneRM != want {
		t.Errorf("EstimatedOneRM = %v, want %v", stats.EstimatedOneRM, want)
	}

	pb, err := em.GetPersonalBests(ctx, exID)
	if err != nil {
		t.Fatalf("GetPersonalBests failed: %v", err)
	}
	if len(pb.BestWeight) != 1 || pb.BestWeight[0].Weight != 80 {
		t.Errorf("BestWeight: %+v", pb.BestWeight)
	}
	if len(pb.BestReps) != 1 || pb.BestReps[0].Reps != 8 {
		t.Errorf("BestReps: %+v", pb.BestReps)
	}
}
