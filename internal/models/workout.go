package models

import "time"

type WorkoutStatus string

const (
	WorkoutStatusActive    WorkoutStatus = "active"
	WorkoutStatusPaused    WorkoutStatus = "paused"
	WorkoutStatusCompleted WorkoutStatus = "completed"
	WorkoutStatusCancelled WorkoutStatus = "cancelled"
)

// Workout is a single training session. Aggregate totals are derived
// from the logged sets and recomputed after every log; they are never
// set directly.
type Workout struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Status      WorkoutStatus     `json:"status"`
	PlanID      *int64            `json:"plan_id,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises"`
	TotalSets   int               `json:"total_sets"`
	TotalReps   int               `json:"total_reps"`
	TotalWeight float64           `json:"total_weight"`
	TotalVolume float64           `json:"total_volume"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (w *Workout) GetID() int64   { return w.ID }
func (w *Workout) SetID(id int64) { w.ID = id }
func (w *Workout) Touch(now time.Time) {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
}

// RecomputeTotals rebuilds the aggregate counters from the embedded
// sets. Warmup sets are excluded.
func (w *Workout) RecomputeTotals() {
	w.TotalSets, w.TotalReps = 0, 0
	w.TotalWeight, w.TotalVolume = 0, 0
	for i := range w.Exercises {
		for _, s := range w.Exercises[i].Sets {
			if s.IsWarmup {
				continue
			}
			w.TotalSets++
			w.TotalReps += s.Reps
			w.TotalWeight += s.Weight
			w.TotalVolume += s.Volume
		}
	}
}

// WorkoutExercise links a workout to an exercise with its targets and
// the sets completed so far.
type WorkoutExercise struct {
	ExerciseID   int64   `json:"exercise_id"`
	TargetSets   int     `json:"target_sets"`
	TargetReps   int     `json:"target_reps"`
	TargetWeight float64 `json:"target_weight,omitempty"`
	Sets         []Set   `json:"sets"`
	IsCompleted  bool    `json:"is_completed"`
	RestTimeSec  int     `json:"rest_time_sec"`
}

// Set is one completed set. It is embedded in its workout and also
// persisted independently in the sets collection so exercise history
// survives workout edits.
type Set struct {
	ID         int64     `json:"id"`
	WorkoutID  int64     `json:"workout_id"`
	ExerciseID int64     `json:"exercise_id"`
	Reps       int       `json:"reps"`
	Weight     float64   `json:"weight"`
	Timestamp  time.Time `json:"timestamp"`
	RPE        *int      `json:"rpe,omitempty"`
	Tempo      string    `json:"tempo,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	IsWarmup   bool      `json:"is_warmup,omitempty"`
	// Volume is reps x weight, computed on write.
	Volume float64 `json:"volume"`
}

func (s *Set) GetID() int64   { return s.ID }
func (s *Set) SetID(id int64) { s.ID = id }
func (s *Set) Touch(now time.Time) {
	if s.Timestamp.IsZero() {
		s.Timestamp = now
	}
}
