package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or inconsistent input.
	ErrValidation = errors.New("validation failed")
	// ErrExerciseNotFound is returned when an exercise id does not resolve for the user.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrWorkoutNotFound is returned when a workout cannot be located for the user.
	ErrWorkoutNotFound = errors.New("workout not found")
)

// Store-level constraint names. Both stores report violations with these names.
const (
	ConstraintWorkoutCorrelation = "uq_workouts_user_client_uuid_not_null"
	ConstraintExerciseName       = "uq_exercises_user_name_lower"
	ConstraintCardioPerWorkout   = "cardio_sessions_workout_id_key"
	ConstraintUserEmail          = "users_email_key"
	ConstraintSetWorkoutFK       = "strength_sets_workout_id_fkey"
	ConstraintSetExerciseFK      = "strength_sets_exercise_id_fkey"
	ConstraintCardioWorkoutFK    = "cardio_sessions_workout_id_fkey"
)

// ConstraintViolation reports a unique or foreign-key violation by constraint name.
type ConstraintViolation struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("constraint %s violated", e.Constraint)
	}
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// IsConstraintViolation reports whether err carries a violation of the named constraint.
func IsConstraintViolation(err error, constraint string) bool {
	var cv *ConstraintViolation
	if !errors.As(err, &cv) {
		return false
	}
	return cv.Constraint == constraint
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
