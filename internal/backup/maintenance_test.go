package backup

import (
	"context"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

func addOldWorkout(t *testing.T, store *storage.Store, name string, daysAgo int, status models.WorkoutStatus, exID int64) int64 {
	t.Helper()
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, -daysAgo)
	w := &models.Workout{
		Name:      name,
		StartTime: start,
		Status:    status,
		Exercises: []models.WorkoutExercise{},
	}
	wID, err := store.Add(ctx, storage.CollectionWorkouts, w)
	if err != nil {
		t.Fatalf("workout add failed: %v", err)
	}
	if _, err := store.Add(ctx, storage.CollectionSets, &models.Set{
		WorkoutID: wID, ExerciseID: exID, Reps: 8, Weight: 60, Volume: 480, Timestamp: start,
	}); err != nil {
		t.Fatalf("set add failed: %v", err)
	}
	return wID
}

func TestCleanupOldData(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	exID, err := store.Add(ctx, storage.CollectionExercises, &models.Exercise{
		Name:         "Cleanup Press",
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentOther,
		Difficulty:   models.DifficultyBeginner,
		IsCustom:     true,
	})
	if err != nil {
		t.Fatalf("exercise add failed: %v", err)
	}

	oldID := addOldWorkout(t, store, "Ancient", 120, models.WorkoutStatusCompleted, exID)
	keepID := addOldWorkout(t, store, "Recent", 5, models.WorkoutStatusCompleted, exID)
	// Old but still open: never cleaned.
	activeID := addOldWorkout(t, store, "Stale Active", 120, models.WorkoutStatusActive, exID)

	if _, err := store.Add(ctx, storage.CollectionProgress, &models.ProgressRecord{
		Kind: models.ProgressMeasurement, Name: "old weight", Value: 85,
		Date: time.Now().UTC().AddDate(0, 0, -120),
	}); err != nil {
		t.Fatalf("progress add failed: %v", err)
	}
	if _, err := store.Add(ctx, storage.CollectionProgress, &models.ProgressRecord{
		Kind: models.ProgressGoal, Name: "old goal", Value: 100,
		Date: time.Now().UTC().AddDate(0, 0, -120),
	}); err != nil {
		t.Fatalf("progress add failed: %v", err)
	}

	result, err := engine.CleanupOldData(ctx, 90)
	if err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}
	if result.Workouts != 1 {
		t.Errorf("cleaned %d workouts, want 1", result.Workouts)
	}
	if result.Sets != 1 {
		t.Errorf("cleaned %d sets, want 1", result.Sets)
	}
	if result.Measurements != 1 {
		t.Errorf("cleaned %d measurements, want 1 (goals stay)", result.Measurements)
	}

	if _, err := storage.Get[models.Workout](ctx, store, storage.CollectionWorkouts, oldID); err == nil {
		t.Error("old workout survived cleanup")
	}
	for _, id := range []int64{keepID, activeID} {
		if _, err := storage.Get[models.Workout](ctx, store, storage.CollectionWorkouts, id); err != nil {
			t.Errorf("workout %d removed by cleanup: %v", id, err)
		}
	}

	// The exercise lost its only set and is in no plan: now an orphan.
	result, err = engine.CleanupOldData(ctx, 90)
	if err != nil {
		t.Fatalf("second CleanupOldData failed: %v", err)
	}
	_ = result
	if _, err := engine.CleanupOldData(ctx, 0); err == nil {
		t.Error("zero-day cleanup accepted")
	}
}

func TestCleanupOrphanExercises(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	orphanID, err := store.Add(ctx, storage.CollectionExercises, &models.Exercise{
		Name:         "Orphan Press",
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentOther,
		Difficulty:   models.DifficultyBeginner,
		IsCustom:     true,
	})
	if err != nil {
		t.Fatalf("exercise add failed: %v", err)
	}

	builtinCount, err := store.Count(ctx, storage.CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	result, err := engine.CleanupOldData(ctx, 90)
	if err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}
	if result.OrphanExercises != 1 {
		t.Errorf("removed %d orphans, want 1", result.OrphanExercises)
	}
	if _, err := storage.Get[models.Exercise](ctx, store, storage.CollectionExercises, orphanID); err == nil {
		t.Error("orphan custom exercise survived")
	}

	after, err := store.Count(ctx, storage.CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if after != builtinCount-1 {
		t.Errorf("built-ins touched by cleanup: %d -> %d", builtinCount, after)
	}
}

func TestResetAllData(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)
	ctx := context.Background()

	result, err := engine.ResetAllData(ctx)
	if err != nil {
		t.Fatalf("ResetAllData failed: %v", err)
	}
	if result.Counts[storage.CollectionExercises] == 0 {
		t.Error("no exercises reported cleared")
	}
	if result.Settings == 0 {
		t.Error("no settings reported cleared (seed guards at least)")
	}

	for _, collection := range storage.Collections() {
		n, err := store.Count(ctx, collection)
		if err != nil {
			t.Fatalf("Count(%s) failed: %v", collection, err)
		}
		if n != 0 {
			t.Errorf("%s not empty after reset: %d", collection, n)
		}
	}
	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("settings survived reset: %v", settings)
	}
}

func TestCalculateStorageUsage(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)

	usage, err := engine.CalculateStorageUsage(context.Background())
	if err != nil {
		t.Fatalf("CalculateStorageUsage failed: %v", err)
	}
	if usage.TotalBytes <= 0 {
		t.Errorf("TotalBytes = %d, want positive", usage.TotalBytes)
	}
	if usage.PerRecord[storage.CollectionExercises] <= 0 {
		t.Errorf("per-collection bytes: %v", usage.PerRecord)
	}

	var perCollection int64
	for _, n := range usage.PerRecord {
		perCollection += n
	}
	if !usage.Estimated && usage.TotalBytes < perCollection {
		t.Errorf("page total %d smaller than document sum %d", usage.TotalBytes, perCollection)
	}
	_ = store
}
