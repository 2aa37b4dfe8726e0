package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tarushsinha/ATHOS/internal/domain"
)

// writeTx mutates the store state directly. The owning Store holds the lock.
type writeTx struct {
	st *state
}

func (t *writeTx) InsertWorkout(ctx context.Context, workout domain.Workout) error {
	if _, ok := t.st.workouts[workout.ID]; ok {
		return &domain.ConstraintViolation{Constraint: "workouts_pkey", Err: fmt.Errorf("workout %s exists", workout.ID)}
	}
	if workout.ClientCorrelationID != nil {
		for _, existing := range t.st.workouts {
			if existing.UserID == workout.UserID && existing.ClientCorrelationID != nil &&
				strings.EqualFold(*existing.ClientCorrelationID, *workout.ClientCorrelationID) {
				return &domain.ConstraintViolation{
					Constraint: domain.ConstraintWorkoutCorrelation,
					Err:        fmt.Errorf("duplicate client_uuid %s", *workout.ClientCorrelationID),
				}
			}
		}
	}
	t.st.workouts[workout.ID] = workout
	return nil
}

func (t *writeTx) FindExerciseByID(ctx context.Context, userID int64, exerciseID string) (*domain.Exercise, error) {
	exercise, ok := t.st.exercises[exerciseID]
	if !ok || exercise.UserID != userID {
		return nil, nil
	}
	return &exercise, nil
}

func (t *writeTx) FindExerciseByName(ctx context.Context, userID int64, name string) (*domain.Exercise, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, exercise := range t.st.exercises {
		if exercise.UserID == userID && strings.ToLower(exercise.Name) == key {
			return &exercise, nil
		}
	}
	return nil, nil
}

func (t *writeTx) InsertExercise(ctx context.Context, exercise domain.Exercise) error {
	key := strings.ToLower(exercise.Name)
	for _, existing := range t.st.exercises {
		if existing.UserID == exercise.UserID && strings.ToLower(existing.Name) == key {
			return &domain.ConstraintViolation{
				Constraint: domain.ConstraintExerciseName,
				Err:        fmt.Errorf("exercise %q exists", exercise.Name),
			}
		}
	}
	t.st.exercises[exercise.ID] = exercise
	return nil
}

func (t *writeTx) InsertStrengthSet(ctx context.Context, set domain.StrengthSet) error {
	if _, ok := t.st.workouts[set.WorkoutID]; !ok {
		return &domain.ConstraintViolation{Constraint: domain.ConstraintSetWorkoutFK, Err: fmt.Errorf("workout %s missing", set.WorkoutID)}
	}
	if _, ok := t.st.exercises[set.ExerciseID]; !ok {
		return &domain.ConstraintViolation{Constraint: domain.ConstraintSetExerciseFK, Err: fmt.Errorf("exercise %s missing", set.ExerciseID)}
	}
	set.ExerciseName = ""
	t.st.sets[set.ID] = roundStrengthSet(set)
	return nil
}

func (t *writeTx) InsertCardioSession(ctx context.Context, session domain.CardioSession) error {
	if _, ok := t.st.workouts[session.WorkoutID]; !ok {
		return &domain.ConstraintViolation{Constraint: domain.ConstraintCardioWorkoutFK, Err: fmt.Errorf("workout %s missing", session.WorkoutID)}
	}
	for _, existing := range t.st.cardio {
		if existing.WorkoutID == session.WorkoutID {
			return &domain.ConstraintViolation{
				Constraint: domain.ConstraintCardioPerWorkout,
				Err:        fmt.Errorf("workout %s already has a cardio session", session.WorkoutID),
			}
		}
	}
	t.st.cardio[session.ID] = roundCardioSession(session)
	return nil
}

// Nested restores the state captured at entry when fn fails.
func (t *writeTx) Nested(ctx context.Context, fn func(ctx context.Context, tx domain.WriteTx) error) error {
	snapshot := t.st.clone()
	if err := fn(ctx, t); err != nil {
		*t.st = *snapshot
		return err
	}
	return nil
}
