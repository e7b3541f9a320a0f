package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/validation"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testExercise(name string) *models.Exercise {
	return &models.Exercise{
		Name:         name,
		Category:     models.CategoryChest,
		MuscleGroups: []string{"chest"},
		Equipment:    models.EquipmentBodyweight,
		Difficulty:   models.DifficultyBeginner,
		IsCustom:     true,
	}
}

func TestAddAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ex := testExercise("Test Press")
	id, err := store.Add(ctx, CollectionExercises, ex)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}
	if ex.ID != id {
		t.Errorf("record id not set: got %d, want %d", ex.ID, id)
	}
	if ex.CreatedAt.IsZero() || ex.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped on add")
	}

	got, err := Get[models.Exercise](ctx, store, CollectionExercises, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Test Press" || got.Category != models.CategoryChest {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestValidationGate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	before, err := store.Count(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	cases := []struct {
		name string
		ex   *models.Exercise
	}{
		{"missing name", &models.Exercise{Category: models.CategoryChest, MuscleGroups: []string{"chest"}, Equipment: models.EquipmentOther, Difficulty: models.DifficultyBeginner}},
		{"bad category", &models.Exercise{Name: "X", Category: "cardio-ish", MuscleGroups: []string{"chest"}, Equipment: models.EquipmentOther, Difficulty: models.DifficultyBeginner}},
		{"no muscle groups", &models.Exercise{Name: "X", Category: models.CategoryChest, Equipment: models.EquipmentOther, Difficulty: models.DifficultyBeginner}},
	}
	for _, tc := range cases {
		_, err := store.Add(ctx, CollectionExercises, tc.ex)
		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	after, err := store.Count(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if after != before {
		t.Errorf("invalid adds changed count: before %d, after %d", before, after)
	}
}

func TestUpdateNotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ex := testExercise("Ghost")
	ex.ID = 999999
	err := store.Update(ctx, CollectionExercises, ex)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Add(ctx, CollectionExercises, testExercise("Doomed"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Delete(ctx, CollectionExercises, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := Get[models.Exercise](ctx, store, CollectionExercises, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, CollectionExercises, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestUnknownCollectionRejected(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "bogus", testExercise("X")); err == nil || !strings.Contains(err.Error(), "unknown collection") {
		t.Errorf("Add: %v", err)
	}
	if _, err := store.GetRaw(ctx, "bogus", 1); err == nil || !strings.Contains(err.Error(), "unknown collection") {
		t.Errorf("GetRaw: %v", err)
	}
	if err := store.Delete(ctx, "bogus", 1); err == nil || !strings.Contains(err.Error(), "unknown collection") {
		t.Errorf("Delete: %v", err)
	}
}

func TestGetByIndex(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	custom := testExercise("Indexed Press")
	custom.Category = models.CategoryCardio
	if _, err := store.Add(ctx, CollectionExercises, custom); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	matches, err := GetByIndex[models.Exercise](ctx, store, CollectionExercises, "category", string(models.CategoryCardio))
	if err != nil {
		t.Fatalf("GetByIndex failed: %v", err)
	}
	found := false
	for _, ex := range matches {
		if ex.Category != models.CategoryCardio {
			t.Errorf("index returned wrong category: %s", ex.Category)
		}
		if ex.Name == "Indexed Press" {
			found = true
		}
	}
	if !found {
		t.Error("added record not returned by index lookup")
	}

	if _, err := GetByIndex[models.Exercise](ctx, store, CollectionExercises, "nonexistent", "x"); !errors.Is(err, ErrIndexMissing) {
		t.Errorf("expected ErrIndexMissing, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, CollectionExercises, testExercise("Cable Fly Special")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	matches, err := Search[models.Exercise](ctx, store, CollectionExercises, "name", "fly spec", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Cable Fly Special" {
		t.Errorf("case-insensitive substring search failed: %+v", matches)
	}
}

func TestListSortAndLimit(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	names := []string{"Zeta Row", "Alpha Row", "Mid Row"}
	for _, n := range names {
		back := testExercise(n)
		back.Category = models.CategoryBack
		if _, err := store.Add(ctx, CollectionExercises, back); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	all, err := GetAll[models.Exercise](ctx, store, CollectionExercises, ListOptions{SortBy: "name"})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("not sorted by name: %q > %q", all[i-1].Name, all[i].Name)
		}
	}

	limited, err := GetAll[models.Exercise](ctx, store, CollectionExercises, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("GetAll with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 records, got %d", len(limited))
	}

	if _, err := GetAll[models.Exercise](ctx, store, CollectionExercises, ListOptions{SortBy: "name; DROP TABLE"}); err == nil {
		t.Error("expected error for invalid sort field")
	}
}

func TestBulkAddPartialSuccess(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	recs := []models.Record{
		testExercise("Bulk One"),
		&models.Exercise{Category: models.CategoryChest}, // invalid
		testExercise("Bulk Two"),
	}
	result, err := store.BulkAdd(ctx, CollectionExercises, recs)
	if err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	if len(result.IDs) != 2 {
		t.Errorf("expected 2 inserted, got %d", len(result.IDs))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Index != 1 {
		t.Errorf("expected record 1 skipped, got %+v", result.Skipped)
	}
	if len(result.Skipped[0].Rules) == 0 {
		t.Error("skipped record carries no rules")
	}
}

func TestSettings(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	got, err := store.GetSetting(ctx, "theme", "dark")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "dark" {
		t.Errorf("expected default, got %q", got)
	}

	if err := store.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	got, err = store.GetSetting(ctx, "theme", "dark")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "light" {
		t.Errorf("expected stored value, got %q", got)
	}

	all, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if all["theme"] != "light" {
		t.Errorf("Settings map missing stored key: %v", all)
	}
}

func TestSeedOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed.db")
	ctx := context.Background()

	store := New(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	exercises, err := store.Count(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if exercises == 0 {
		t.Fatal("fresh database has no built-in exercises")
	}
	templates, err := GetByIndex[models.Plan](ctx, store, CollectionPlans, "is_template", true)
	if err != nil {
		t.Fatalf("template lookup failed: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("fresh database has no built-in templates")
	}
	store.Close()

	// Reopen: seeding must not duplicate.
	store = New(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	defer store.Close()

	again, err := store.Count(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if again != exercises {
		t.Errorf("seeding ran twice: %d then %d exercises", exercises, again)
	}
}

func TestClear(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	cleared, err := store.Clear(ctx, CollectionExercises)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != n {
		t.Errorf("Clear reported %d, count was %d", cleared, n)
	}
	after, _ := store.Count(ctx, CollectionExercises)
	if after != 0 {
		t.Errorf("collection not empty after clear: %d", after)
	}
}

func TestSanitizeOnWrite(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ex := testExercise("Clean <script>alert(1)</script>Press")
	id, err := store.Add(ctx, CollectionExercises, ex)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := Get[models.Exercise](ctx, store, CollectionExercises, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Clean Press" {
		t.Errorf("script content not stripped: %q", got.Name)
	}
}

func TestTouchPreservesCreatedAt(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	ex := testExercise("Stamped")
	id, err := store.Add(ctx, CollectionExercises, ex)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	created := ex.CreatedAt

	time.Sleep(5 * time.Millisecond)
	ex.Name = "Stamped Again"
	if err := store.Update(ctx, CollectionExercises, ex); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := Get[models.Exercise](ctx, store, CollectionExercises, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at changed on update: %v -> %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("updated_at not advanced: %v", got.UpdatedAt)
	}
}
