package backup

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/manager"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

func setupEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewEngine(store), store
}

// seedWorkoutData runs a short session so exports have workouts, sets
// and progress to carry.
func seedWorkoutData(t *testing.T, store *storage.Store) int64 {
	t.Helper()
	ctx := context.Background()

	exID, err := store.Add(ctx, storage.CollectionExercises, &models.Exercise{
		Name:         "Export Press",
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentBarbell,
		Difficulty:   models.DifficultyIntermediate,
		IsCustom:     true,
	})
	if err != nil {
		t.Fatalf("exercise add failed: %v", err)
	}

	wm := manager.NewWorkoutManager(store, events.NewBus())
	if _, err := wm.StartNewWorkout(ctx, "Export Session"); err != nil {
		t.Fatalf("StartNewWorkout failed: %v", err)
	}
	if err := wm.AddExerciseToWorkout(ctx, exID, 2, 8, 60); err != nil {
		t.Fatalf("AddExerciseToWorkout failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := wm.LogSet(ctx, exID, models.Set{Reps: 8, Weight: 60}); err != nil {
			t.Fatalf("LogSet failed: %v", err)
		}
	}
	if _, err := wm.CompleteWorkout(ctx); err != nil {
		t.Fatalf("CompleteWorkout failed: %v", err)
	}

	for _, p := range []*models.ProgressRecord{
		{Kind: models.ProgressGoal, Name: "bench 100", Value: 100, Unit: "kg"},
		{Kind: models.ProgressMeasurement, Name: "bodyweight", Value: 80, Unit: "kg"},
		{Kind: models.ProgressAchievement, Name: "first workout", Value: 1},
	} {
		if _, err := store.Add(ctx, storage.CollectionProgress, p); err != nil {
			t.Fatalf("progress add failed: %v", err)
		}
	}
	return exID
}

func TestBuildSnapshot(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)
	ctx := context.Background()

	snap, err := engine.BuildSnapshot(ctx, ExportOptions{})
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}

	if len(snap.Workouts) != 1 {
		t.Errorf("workouts = %d, want 1", len(snap.Workouts))
	}
	if len(snap.Sets) != 2 {
		t.Errorf("sets = %d, want 2", len(snap.Sets))
	}
	if len(snap.Goals) != 1 || len(snap.Measurements) != 1 || len(snap.Achievements) != 1 {
		t.Errorf("progress split: %d/%d/%d", len(snap.Goals), len(snap.Measurements), len(snap.Achievements))
	}
	if snap.Metadata.ID == "" {
		t.Error("metadata id missing")
	}
	if snap.Metadata.Counts["workouts"] != 1 {
		t.Errorf("counts: %v", snap.Metadata.Counts)
	}
	if snap.Statistics == nil {
		t.Fatal("statistics block missing")
	}
	if snap.Statistics.CompletedWorkouts != 1 || snap.Statistics.TotalSets != 2 {
		t.Errorf("statistics: %+v", snap.Statistics)
	}
}

func TestBuildSnapshotExcludePersonal(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)

	snap, err := engine.BuildSnapshot(context.Background(), ExportOptions{ExcludePersonal: true})
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}
	if len(snap.Goals) != 0 || len(snap.Measurements) != 0 {
		t.Errorf("personal records not excluded: %d goals, %d measurements",
			len(snap.Goals), len(snap.Measurements))
	}
	if len(snap.Achievements) != 1 {
		t.Error("achievements should survive ExcludePersonal")
	}
}

func TestBuildSnapshotDateRange(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)

	past := time.Now().UTC().Add(-48 * time.Hour)
	older := past.Add(-24 * time.Hour)
	snap, err := engine.BuildSnapshot(context.Background(), ExportOptions{From: &older, To: &past})
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}
	if len(snap.Workouts) != 0 || len(snap.Sets) != 0 {
		t.Errorf("range filter kept current records: %d workouts, %d sets",
			len(snap.Workouts), len(snap.Sets))
	}
	// The library is not date-bearing and always exports in full.
	if len(snap.Exercises) == 0 {
		t.Error("exercises dropped by date range")
	}
}

func TestExportFormats(t *testing.T) {
	engine, store := setupEngine(t)
	seedWorkoutData(t, store)
	ctx := context.Background()

	data, name, err := engine.ExportAllData(ctx, FormatJSON, ExportOptions{})
	if err != nil {
		t.Fatalf("JSON export failed: %v", err)
	}
	if !strings.HasSuffix(name, ".json") {
		t.Errorf("filename = %q", name)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("JSON export does not parse: %v", err)
	}

	data, name, err = engine.ExportAllData(ctx, FormatCSV, ExportOptions{})
	if err != nil {
		t.Fatalf("CSV export failed: %v", err)
	}
	if !strings.HasSuffix(name, ".csv") {
		t.Errorf("filename = %q", name)
	}
	for _, section := range []string{"# Metadata", "# Exercises", "# Workouts", "# Sets", "# Goals"} {
		if !strings.Contains(string(data), section+"\n") {
			t.Errorf("CSV export missing section %q", section)
		}
	}

	data, _, err = engine.ExportAllData(ctx, FormatText, ExportOptions{})
	if err != nil {
		t.Fatalf("text export failed: %v", err)
	}
	if !strings.Contains(string(data), "Export Session") {
		t.Error("text export missing recent workout")
	}

	if _, _, err := engine.ExportAllData(ctx, Format("xml"), ExportOptions{}); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestCSVFieldEscaping(t *testing.T) {
	if got := csvField("a,b\nc"); got != "a;b c" {
		t.Errorf("csvField = %q", got)
	}

	engine, store := setupEngine(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, storage.CollectionExercises, &models.Exercise{
		Name:         "Comma, Press",
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentOther,
		Difficulty:   models.DifficultyBeginner,
		IsCustom:     true,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	data, _, err := engine.ExportAllData(ctx, FormatCSV, ExportOptions{})
	if err != nil {
		t.Fatalf("CSV export failed: %v", err)
	}
	if !strings.Contains(string(data), "Comma; Press") {
		t.Error("embedded comma not escaped in CSV export")
	}
}

func TestShareWorkoutPlan(t *testing.T) {
	engine, store := setupEngine(t)
	exID := seedWorkoutData(t, store)
	ctx := context.Background()

	planID, err := store.Add(ctx, storage.CollectionPlans, &models.Plan{
		Name:       "Shared Program",
		Category:   models.CategoryChest,
		Difficulty: models.DifficultyIntermediate,
		Exercises: []models.PlanExercise{
			{ExerciseID: exID, TargetSets: 3, TargetReps: 8, RestTimeSec: 90, SupersetGroup: "A"},
		},
	})
	if err != nil {
		t.Fatalf("plan add failed: %v", err)
	}

	data, err := engine.ShareWorkoutPlan(ctx, planID, FormatJSON)
	if err != nil {
		t.Fatalf("ShareWorkoutPlan failed: %v", err)
	}
	var shared SharedPlan
	if err := json.Unmarshal(data, &shared); err != nil {
		t.Fatalf("shared plan does not parse: %v", err)
	}
	if shared.Name != "Shared Program" {
		t.Errorf("Name = %q", shared.Name)
	}
	if len(shared.Exercises) != 1 || shared.Exercises[0].Exercise != "Export Press" {
		t.Errorf("exercises not referenced by name: %+v", shared.Exercises)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Error("shared plan leaks surrogate keys")
	}

	text, err := engine.ShareWorkoutPlan(ctx, planID, FormatText)
	if err != nil {
		t.Fatalf("text share failed: %v", err)
	}
	if !strings.Contains(string(text), "Export Press") || !strings.Contains(string(text), "superset A") {
		t.Errorf("text share content: %s", text)
	}

	if _, err := engine.ShareWorkoutPlan(ctx, planID, FormatCSV); err == nil {
		t.Error("CSV share accepted")
	}
}
