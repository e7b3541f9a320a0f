package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/logger"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

// CleanupResult counts what CleanupOldData removed.
type CleanupResult struct {
	Workouts        int `json:"workouts"`
	Sets            int `json:"sets"`
	Measurements    int `json:"measurements"`
	OrphanExercises int `json:"orphan_exercises"`
}

// CleanupOldData deletes finished workouts older than daysOld along
// with their persisted sets, measurements older than the cutoff, and
// custom exercises left with no remaining references. Active and
// paused workouts are never touched.
func (e *Engine) CleanupOldData(ctx context.Context, daysOld int) (*CleanupResult, error) {
	if daysOld <= 0 {
		return nil, fmt.Errorf("cleanup age must be positive, got %d", daysOld)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld)
	result := &CleanupResult{}

	workouts, err := storage.GetAll[models.Workout](ctx, e.store, storage.CollectionWorkouts, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, w := range workouts {
		if w.Status == models.WorkoutStatusActive || w.Status == models.WorkoutStatusPaused {
			continue
		}
		if !w.StartTime.Before(cutoff) {
			continue
		}

		sets, err := storage.GetByIndex[models.Set](ctx, e.store, storage.CollectionSets, "workout_id", w.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range sets {
			if err := e.store.Delete(ctx, storage.CollectionSets, s.ID); err != nil {
				return nil, err
			}
			result.Sets++
		}
		if err := e.store.Delete(ctx, storage.CollectionWorkouts, w.ID); err != nil {
			return nil, err
		}
		result.Workouts++
	}

	progress, err := storage.GetAll[models.ProgressRecord](ctx, e.store, storage.CollectionProgress, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		if p.Kind != models.ProgressMeasurement || !p.Date.Before(cutoff) {
			continue
		}
		if err := e.store.Delete(ctx, storage.CollectionProgress, p.ID); err != nil {
			return nil, err
		}
		result.Measurements++
	}

	orphans, err := e.deleteOrphanCustomExercises(ctx)
	if err != nil {
		return nil, err
	}
	result.OrphanExercises = orphans

	logger.Info("cleanup finished", "cutoff", cutoff.Format(time.RFC3339),
		"workouts", result.Workouts, "sets", result.Sets,
		"measurements", result.Measurements, "orphan_exercises", result.OrphanExercises)
	return result, nil
}

// deleteOrphanCustomExercises removes custom exercises no set or plan
// references anymore. Built-ins always stay.
func (e *Engine) deleteOrphanCustomExercises(ctx context.Context) (int, error) {
	exercises, err := storage.GetAll[models.Exercise](ctx, e.store, storage.CollectionExercises, storage.ListOptions{})
	if err != nil {
		return 0, err
	}
	plans, err := storage.GetAll[models.Plan](ctx, e.store, storage.CollectionPlans, storage.ListOptions{})
	if err != nil {
		return 0, err
	}
	inPlan := make(map[int64]bool)
	for _, p := range plans {
		for _, pe := range p.Exercises {
			inPlan[pe.ExerciseID] = true
		}
	}

	deleted := 0
	for _, ex := range exercises {
		if !ex.IsCustom || inPlan[ex.ID] {
			continue
		}
		sets, err := storage.GetByIndex[models.Set](ctx, e.store, storage.CollectionSets, "exercise_id", ex.ID)
		if err != nil {
			return deleted, err
		}
		if len(sets) > 0 {
			continue
		}
		if err := e.store.Delete(ctx, storage.CollectionExercises, ex.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// ResetResult reports the record counts removed per collection.
type ResetResult struct {
	Counts   map[string]int64 `json:"counts"`
	Settings int64            `json:"settings"`
}

// ResetAllData clears every collection and all settings. The schema and
// database file remain; built-ins reseed on the next Init of a fresh
// store since the seed guards are settings.
func (e *Engine) ResetAllData(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{Counts: make(map[string]int64)}
	for _, collection := range storage.Collections() {
		n, err := e.store.Clear(ctx, collection)
		if err != nil {
			return nil, err
		}
		result.Counts[collection] = n
	}
	n, err := e.store.ClearSettings(ctx)
	if err != nil {
		return nil, err
	}
	result.Settings = n

	logger.Info("all data reset", "collections", result.Counts, "settings", n)
	return result, nil
}

// StorageUsage reports how much space the database occupies.
type StorageUsage struct {
	TotalBytes int64            `json:"total_bytes"`
	PerRecord  map[string]int64 `json:"per_record,omitempty"`
	Estimated  bool             `json:"estimated"`
}

// CalculateStorageUsage reads page_count x page_size from the database,
// falling back to summing persisted document sizes when the pragmas
// are unavailable.
func (e *Engine) CalculateStorageUsage(ctx context.Context) (*StorageUsage, error) {
	db := e.store.DB()
	if db == nil {
		return nil, storage.ErrUnavailable
	}

	var pageCount, pageSize int64
	errCount := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	errSize := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	if errCount == nil && errSize == nil && pageCount > 0 && pageSize > 0 {
		usage := &StorageUsage{TotalBytes: pageCount * pageSize, PerRecord: make(map[string]int64)}
		for _, collection := range storage.Collections() {
			var bytes int64
			if err := db.QueryRowContext(ctx,
				fmt.Sprintf("SELECT COALESCE(SUM(LENGTH(data)), 0) FROM %s", collection)).Scan(&bytes); err == nil {
				usage.PerRecord[collection] = bytes
			}
		}
		return usage, nil
	}

	// Pragma unavailable: estimate from the documents themselves.
	usage := &StorageUsage{PerRecord: make(map[string]int64), Estimated: true}
	for _, collection := range storage.Collections() {
		var bytes int64
		if err := db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COALESCE(SUM(LENGTH(data)), 0) FROM %s", collection)).Scan(&bytes); err != nil {
			return nil, fmt.Errorf("measure %s: %w", collection, err)
		}
		usage.PerRecord[collection] = bytes
		usage.TotalBytes += bytes
	}
	return usage, nil
}
