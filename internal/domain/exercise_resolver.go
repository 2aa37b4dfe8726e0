package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolution reports how Resolve arrived at the exercise.
type Resolution int

const (
	// ResolvedExisting found the exercise by id or name.
	ResolvedExisting Resolution = iota
	// ResolvedCreated inserted a new exercise inside the caller's transaction.
	ResolvedCreated
	// ResolvedAfterConflict lost the insert to a concurrent creator and re-read its row.
	ResolvedAfterConflict
)

// ExerciseResolver maps a strength set's exercise reference to a canonical exercise.
type ExerciseResolver struct {
	now func() time.Time
}

// NewExerciseResolver constructs an ExerciseResolver.
func NewExerciseResolver() *ExerciseResolver {
	return &ExerciseResolver{now: time.Now}
}

// Resolve looks the exercise up by id, or by case-insensitive trimmed name, creating it
// when no exercise of that name exists. A concurrent creator winning the name is absorbed
// by rolling back the savepoint and re-reading. Resolve records nothing itself: a created
// exercise only exists once the caller's transaction commits.
func (r *ExerciseResolver) Resolve(ctx context.Context, tx WriteTx, userID int64, ref ExerciseRef) (*Exercise, Resolution, error) {
	if ref.ID != "" {
		exercise, err := tx.FindExerciseByID(ctx, userID, ref.ID)
		if err != nil {
			return nil, ResolvedExisting, err
		}
		if exercise == nil {
			return nil, ResolvedExisting, fmt.Errorf("%w: %s", ErrExerciseNotFound, ref.ID)
		}
		return exercise, ResolvedExisting, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, ResolvedExisting, validationf("provide exercise_id or exercise_name")
	}

	existing, err := tx.FindExerciseByName(ctx, userID, name)
	if err != nil {
		return nil, ResolvedExisting, err
	}
	if existing != nil {
		return existing, ResolvedExisting, nil
	}

	candidate := Exercise{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            name,
		DefaultModality: ModalityStrength,
		IsActive:        true,
		CreatedAt:       r.now().UTC(),
	}
	insertErr := tx.Nested(ctx, func(ctx context.Context, sp WriteTx) error {
		return sp.InsertExercise(ctx, candidate)
	})
	if insertErr == nil {
		return &candidate, ResolvedCreated, nil
	}
	if !IsConstraintViolation(insertErr, ConstraintExerciseName) {
		return nil, ResolvedExisting, insertErr
	}

	winner, err := tx.FindExerciseByName(ctx, userID, name)
	if err != nil {
		return nil, ResolvedExisting, err
	}
	if winner == nil {
		return nil, ResolvedExisting, insertErr
	}
	return winner, ResolvedAfterConflict, nil
}
