package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/liftlog/liftlog/internal/constants"
	"github.com/liftlog/liftlog/internal/events"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
	"github.com/liftlog/liftlog/internal/validation"
)

// SessionState is the in-memory workout session state machine:
// Idle -> Active <-> Resting -> Completed, with Paused reachable from
// Active/Resting.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionActive    SessionState = "active"
	SessionResting   SessionState = "resting"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
)

type WorkoutManager struct {
	store *storage.Store
	bus   *events.Bus

	mu       sync.Mutex
	state    SessionState
	activeID int64

	restTimer     *Timer
	durationTimer *Timer
}

func NewWorkoutManager(store *storage.Store, bus *events.Bus) *WorkoutManager {
	return &WorkoutManager{
		store: store,
		bus:   bus,
		state: SessionIdle,
		restTimer: newTimer(bus, events.RestTimerTick, events.RestTimerFinished,
			events.RestTimerStopped, constants.RestTimerPeriod),
		durationTimer: newTimer(bus, events.DurationTimerTick, "", "",
			constants.RestTimerPeriod),
	}
}

// State returns the current session state.
func (m *WorkoutManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StartNewWorkout opens a workout session. Only one session may be
// open at a time, in memory or persisted.
func (m *WorkoutManager) StartNewWorkout(ctx context.Context, name string) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID != 0 {
		return nil, ErrAlreadyActive
	}
	open, err := storage.GetByIndex[models.Workout](ctx, m.store, storage.CollectionWorkouts,
		"status", string(models.WorkoutStatusActive))
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("%w: workout %d", ErrAlreadyActive, open[0].ID)
	}

	w := &models.Workout{
		Name:      name,
		StartTime: time.Now().UTC(),
		Status:    models.WorkoutStatusActive,
		Exercises: []models.WorkoutExercise{},
	}
	id, err := m.store.Add(ctx, storage.CollectionWorkouts, w)
	if err != nil {
		return nil, err
	}
	w.ID = id

	m.activeID = id
	m.state = SessionActive
	m.durationTimer.StartElapsed()
	m.bus.Publish(events.WorkoutStarted, w)
	return w, nil
}

// ActiveWorkout loads the open session's workout record.
func (m *WorkoutManager) ActiveWorkout(ctx context.Context) (*models.Workout, error) {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()
	if id == 0 {
		return nil, ErrNoActiveWorkout
	}
	return storage.Get[models.Workout](ctx, m.store, storage.CollectionWorkouts, id)
}

// defaultRestTime picks a rest period from the exercise's category and
// difficulty: cardio 30s, heavy (advanced or legs) 180s, core 60s,
// everything else 90s.
func defaultRestTime(ex *models.Exercise) int {
	switch {
	case ex.Category == models.CategoryCardio:
		return constants.RestCardioSec
	case ex.Difficulty == models.DifficultyAdvanced || ex.Category == models.CategoryLegs:
		return constants.RestHeavySec
	case ex.Category == models.CategoryCore:
		return constants.RestCoreSec
	default:
		return constants.RestDefaultSec
	}
}

// AddExerciseToWorkout appends an exercise entry with targets to the
// active workout, computing a default rest time.
func (m *WorkoutManager) AddExerciseToWorkout(ctx context.Context, exerciseID int64, targetSets, targetReps int, targetWeight float64) error {
	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return err
	}
	ex, err := storage.Get[models.Exercise](ctx, m.store, storage.CollectionExercises, exerciseID)
	if err != nil {
		return err
	}

	w.Exercises = append(w.Exercises, models.WorkoutExercise{
		ExerciseID:   exerciseID,
		TargetSets:   targetSets,
		TargetReps:   targetReps,
		TargetWeight: targetWeight,
		Sets:         []models.Set{},
		RestTimeSec:  defaultRestTime(ex),
	})
	return m.store.Update(ctx, storage.CollectionWorkouts, w)
}

func validateLoggedSet(set *models.Set) []string {
	var rules []string
	if set.Reps < constants.MinReps || set.Reps > constants.MaxReps {
		rules = append(rules, fmt.Sprintf("reps must be between %d and %d", constants.MinReps, constants.MaxReps))
	}
	if set.Weight < constants.MinWeight || set.Weight > constants.MaxWeight {
		rules = append(rules, fmt.Sprintf("weight must be between %v and %v", constants.MinWeight, constants.MaxWeight))
	}
	if set.RPE != nil && (*set.RPE < 1 || *set.RPE > 10) {
		rules = append(rules, "rpe must be between 1 and 10")
	}
	return rules
}

// LogSet records a completed set against an exercise in the active
// workout: the set is persisted independently, embedded in the
// workout, aggregate totals are recomputed, the exercise is marked
// complete once its target set count is reached, and a rest timer
// starts when more sets remain.
func (m *WorkoutManager) LogSet(ctx context.Context, exerciseID int64, set models.Set) (*models.Workout, error) {
	if rules := validateLoggedSet(&set); len(rules) > 0 {
		return nil, validation.NewError(rules)
	}

	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range w.Exercises {
		if w.Exercises[i].ExerciseID == exerciseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("exercise %d is not part of workout %d", exerciseID, w.ID)
	}

	set.WorkoutID = w.ID
	set.ExerciseID = exerciseID
	set.Volume = float64(set.Reps) * set.Weight
	if set.Timestamp.IsZero() {
		set.Timestamp = time.Now().UTC()
	}

	setID, err := m.store.Add(ctx, storage.CollectionSets, &set)
	if err != nil {
		return nil, err
	}
	set.ID = setID

	we := &w.Exercises[idx]
	we.Sets = append(we.Sets, set)

	completed := 0
	for _, s := range we.Sets {
		if !s.IsWarmup {
			completed++
		}
	}
	if we.TargetSets > 0 && completed >= we.TargetSets {
		we.IsCompleted = true
	}

	w.RecomputeTotals()
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return nil, err
	}

	m.bus.Publish(events.SetLogged, set)

	if !we.IsCompleted && !set.IsWarmup {
		m.startRest(time.Duration(we.RestTimeSec) * time.Second)
	}
	return w, nil
}

func (m *WorkoutManager) startRest(d time.Duration) {
	m.mu.Lock()
	if m.state == SessionActive {
		m.state = SessionResting
	}
	m.mu.Unlock()

	m.bus.Publish(events.RestTimerStarted, TimerEvent{RemainingSec: int(d / time.Second)})
	m.restTimer.StartCountdown(d)
}

// StopRest cancels a running rest countdown and returns the session to
// Active.
func (m *WorkoutManager) StopRest() {
	m.restTimer.Stop()
	m.mu.Lock()
	if m.state == SessionResting {
		m.state = SessionActive
	}
	m.mu.Unlock()
}

// PauseWorkout freezes the session and both timers.
func (m *WorkoutManager) PauseWorkout(ctx context.Context) error {
	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return err
	}

	m.restTimer.Stop()
	m.durationTimer.Stop()

	w.Status = models.WorkoutStatusPaused
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = SessionPaused
	m.mu.Unlock()
	m.bus.Publish(events.WorkoutPaused, w)
	return nil
}

// ResumeWorkout reopens a paused session.
func (m *WorkoutManager) ResumeWorkout(ctx context.Context) error {
	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return err
	}

	w.Status = models.WorkoutStatusActive
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = SessionActive
	m.mu.Unlock()
	m.durationTimer.StartElapsed()
	m.bus.Publish(events.WorkoutResumed, w)
	return nil
}

// CompleteWorkout stamps the end time, freezes totals and clears the
// session. A new StartNewWorkout is required to train again.
func (m *WorkoutManager) CompleteWorkout(ctx context.Context) (*models.Workout, error) {
	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return nil, err
	}

	m.restTimer.Stop()
	m.durationTimer.Stop()

	now := time.Now().UTC()
	w.EndTime = &now
	w.Status = models.WorkoutStatusCompleted
	w.RecomputeTotals()
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.state = SessionIdle
	m.activeID = 0
	m.mu.Unlock()
	m.bus.Publish(events.WorkoutCompleted, w)
	return w, nil
}

// CancelWorkout abandons the session, keeping the record with
// cancelled status.
func (m *WorkoutManager) CancelWorkout(ctx context.Context) error {
	w, err := m.ActiveWorkout(ctx)
	if err != nil {
		return err
	}

	m.restTimer.Stop()
	m.durationTimer.Stop()

	now := time.Now().UTC()
	w.EndTime = &now
	w.Status = models.WorkoutStatusCancelled
	if err := m.store.Update(ctx, storage.CollectionWorkouts, w); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = SessionIdle
	m.activeID = 0
	m.mu.Unlock()
	m.bus.Publish(events.WorkoutCancelled, w)
	return nil
}

// GetWorkoutByID loads any workout, open or not.
func (m *WorkoutManager) GetWorkoutByID(ctx context.Context, id int64) (*models.Workout, error) {
	return storage.Get[models.Workout](ctx, m.store, storage.CollectionWorkouts, id)
}

// GetWorkoutHistory lists workouts newest first.
func (m *WorkoutManager) GetWorkoutHistory(ctx context.Context, limit int) ([]*models.Workout, error) {
	return storage.GetAll[models.Workout](ctx, m.store, storage.CollectionWorkouts, storage.ListOptions{
		SortBy: "start_time", SortOrder: "desc", Limit: limit,
	})
}

// AttachSession adopts an already-active persisted workout (e.g. after
// a restart) as the in-memory session.
func (m *WorkoutManager) AttachSession(ctx context.Context) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID != 0 {
		return nil, ErrAlreadyActive
	}

	open, err := storage.GetByIndex[models.Workout](ctx, m.store, storage.CollectionWorkouts,
		"status", string(models.WorkoutStatusActive))
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, ErrNoActiveWorkout
	}

	m.activeID = open[0].ID
	m.state = SessionActive
	m.durationTimer.StartElapsed()
	return open[0], nil
}
