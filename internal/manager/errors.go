package manager

import "errors"

var (
	// ErrAlreadyActive guards the single-concurrent-workout invariant.
	ErrAlreadyActive = errors.New("a workout session is already active")

	// ErrNoActiveWorkout is returned by session operations when no
	// workout is open.
	ErrNoActiveWorkout = errors.New("no active workout session")

	// ErrBuiltinImmutable rejects edits or deletes of built-in exercises.
	ErrBuiltinImmutable = errors.New("built-in exercises cannot be modified or deleted")

	// ErrExerciseInUse rejects deleting an exercise still referenced by
	// logged sets or plans.
	ErrExerciseInUse = errors.New("exercise is referenced by logged sets or plans")
)
