package domain

import "context"

// WriteTx is the write surface available inside a store transaction.
type WriteTx interface {
	InsertWorkout(ctx context.Context, workout Workout) error
	FindExerciseByID(ctx context.Context, userID int64, exerciseID string) (*Exercise, error)
	// FindExerciseByName matches the trimmed name case-insensitively.
	FindExerciseByName(ctx context.Context, userID int64, name string) (*Exercise, error)
	InsertExercise(ctx context.Context, exercise Exercise) error
	InsertStrengthSet(ctx context.Context, set StrengthSet) error
	InsertCardioSession(ctx context.Context, session CardioSession) error
	// Nested runs fn inside a savepoint. An error from fn undoes only the work done in fn.
	Nested(ctx context.Context, fn func(ctx context.Context, tx WriteTx) error) error
}

// WorkoutStore captures persistence operations. Lookups return nil, nil when nothing matches.
type WorkoutStore interface {
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx WriteTx) error) error
	FindWorkoutByCorrelationID(ctx context.Context, userID int64, correlationID string) (*Workout, error)
	GetWorkout(ctx context.Context, userID int64, workoutID string) (*Workout, error)
	// ListWorkoutSummaries orders by start_ts then id, both descending.
	ListWorkoutSummaries(ctx context.Context, userID int64, day DayRange, cursor *Cursor, limit int) ([]WorkoutSummary, *Cursor, error)
	// ListWorkoutsInRange orders by start_ts then id, both descending.
	ListWorkoutsInRange(ctx context.Context, userID int64, day DayRange, limit int) ([]Workout, error)
	// ListStrengthSets orders by set_index then id and fills ExerciseName.
	ListStrengthSets(ctx context.Context, userID int64, workoutIDs []string) ([]StrengthSet, error)
	ListCardioSessions(ctx context.Context, userID int64, workoutIDs []string) ([]CardioSession, error)
	// ListMuscleGroupLinks orders by muscle group name.
	ListMuscleGroupLinks(ctx context.Context, exerciseIDs []string) ([]MuscleGroupLink, error)
	// DeleteWorkout reports false when no workout matched. Children go with it.
	DeleteWorkout(ctx context.Context, userID int64, workoutID string) (bool, error)
}
