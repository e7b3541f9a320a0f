// Package manager implements the business-rule layer over the store:
// exercise library management, the workout session state machine and
// plan operations. Managers are constructed with a store handle; there
// is no package-level singleton state.
package manager

import (
	"context"
	"fmt"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

type ExerciseManager struct {
	store *storage.Store
}

func NewExerciseManager(store *storage.Store) *ExerciseManager {
	return &ExerciseManager{store: store}
}

// AddCustomExercise persists a user-created exercise. IsCustom is
// forced true: callers cannot mint built-ins.
func (m *ExerciseManager) AddCustomExercise(ctx context.Context, ex *models.Exercise) (int64, error) {
	ex.ID = 0
	ex.IsCustom = true
	return m.store.Add(ctx, storage.CollectionExercises, ex)
}

func (m *ExerciseManager) GetExerciseByID(ctx context.Context, id int64) (*models.Exercise, error) {
	return storage.Get[models.Exercise](ctx, m.store, storage.CollectionExercises, id)
}

func (m *ExerciseManager) GetAllExercises(ctx context.Context, opts storage.ListOptions) ([]*models.Exercise, error) {
	return storage.GetAll[models.Exercise](ctx, m.store, storage.CollectionExercises, opts)
}

func (m *ExerciseManager) GetExercisesByCategory(ctx context.Context, cat models.Category) ([]*models.Exercise, error) {
	return storage.GetByIndex[models.Exercise](ctx, m.store, storage.CollectionExercises, "category", string(cat))
}

// SearchExercises matches exercise names case-insensitively on a
// substring.
func (m *ExerciseManager) SearchExercises(ctx context.Context, query string, limit int) ([]*models.Exercise, error) {
	return storage.Search[models.Exercise](ctx, m.store, storage.CollectionExercises, "name", query, limit)
}

// UpdateExercise rejects edits to built-ins regardless of any other
// state.
func (m *ExerciseManager) UpdateExercise(ctx context.Context, ex *models.Exercise) error {
	existing, err := m.GetExerciseByID(ctx, ex.ID)
	if err != nil {
		return err
	}
	if !existing.IsCustom {
		return fmt.Errorf("%w: %s", ErrBuiltinImmutable, existing.Name)
	}
	ex.IsCustom = true
	ex.CreatedAt = existing.CreatedAt
	return m.store.Update(ctx, storage.CollectionExercises, ex)
}

// DeleteExercise refuses to delete built-ins and exercises still in
// use by any logged set or plan.
func (m *ExerciseManager) DeleteExercise(ctx context.Context, id int64) error {
	existing, err := m.GetExerciseByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsCustom {
		return fmt.Errorf("%w: %s", ErrBuiltinImmutable, existing.Name)
	}
	inUse, err := m.IsExerciseInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: %s", ErrExerciseInUse, existing.Name)
	}
	return m.store.Delete(ctx, storage.CollectionExercises, id)
}

// IsExerciseInUse reports whether any persisted set references the
// exercise or any plan embeds it.
func (m *ExerciseManager) IsExerciseInUse(ctx context.Context, id int64) (bool, error) {
	sets, err := storage.GetByIndex[models.Set](ctx, m.store, storage.CollectionSets, "exercise_id", id)
	if err != nil {
		return false, err
	}
	if len(sets) > 0 {
		return true, nil
	}

	plans, err := storage.GetAll[models.Plan](ctx, m.store, storage.CollectionPlans, storage.ListOptions{})
	if err != nil {
		return false, err
	}
	for _, p := range plans {
		for _, pe := range p.Exercises {
			if pe.ExerciseID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetExerciseStats aggregates max weight/reps/volume and the estimated
// one-rep max over every logged set for the exercise.
func (m *ExerciseManager) GetExerciseStats(ctx context.Context, id int64) (ExerciseStats, error) {
	sets, err := storage.GetByIndex[models.Set](ctx, m.store, storage.CollectionSets, "exercise_id", id)
	if err != nil {
		return ExerciseStats{}, err
	}
	return computeStats(id, sets), nil
}

// GetPersonalBests scans every logged set for the exercise and reports
// the set(s) achieving each maximum.
func (m *ExerciseManager) GetPersonalBests(ctx context.Context, id int64) (PersonalBests, error) {
	sets, err := storage.GetByIndex[models.Set](ctx, m.store, storage.CollectionSets, "exercise_id", id)
	if err != nil {
		return PersonalBests{}, err
	}
	return computePersonalBests(id, sets), nil
}
