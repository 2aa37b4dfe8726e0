package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/multierr"

	"github.com/tarushsinha/ATHOS/internal/domain"
)

// writeTx runs statements on an open transaction or savepoint.
type writeTx struct {
	tx pgx.Tx
}

func (t *writeTx) InsertWorkout(ctx context.Context, w domain.Workout) error {
	const stmt = `INSERT INTO workouts (id, user_id, workout_type, title, start_ts, end_ts, source, provider, client_uuid, version, created_at, updated_at)
        VALUES ($1::uuid,$2,$3::modality,$4,$5,$6,$7,$8,$9::uuid,$10,$11,$11)`

	_, err := t.tx.Exec(ctx, stmt,
		w.ID,
		w.UserID,
		string(w.Type),
		w.Title,
		w.StartTS,
		w.EndTS,
		w.Source,
		w.Provider,
		w.ClientCorrelationID,
		w.Version,
		w.CreatedAt,
	)
	return translateError(err)
}

func (t *writeTx) FindExerciseByID(ctx context.Context, userID int64, exerciseID string) (*domain.Exercise, error) {
	const query = `SELECT id::text, user_id, name, default_modality::text, is_active, created_at
        FROM exercises WHERE user_id=$1 AND id=$2::uuid`
	return t.findExercise(ctx, query, userID, exerciseID)
}

func (t *writeTx) FindExerciseByName(ctx context.Context, userID int64, name string) (*domain.Exercise, error) {
	const query = `SELECT id::text, user_id, name, default_modality::text, is_active, created_at
        FROM exercises WHERE user_id=$1 AND lower(name) = lower(btrim($2))`
	return t.findExercise(ctx, query, userID, name)
}

func (t *writeTx) findExercise(ctx context.Context, query string, args ...any) (*domain.Exercise, error) {
	var e domain.Exercise
	err := t.tx.QueryRow(ctx, query, args...).Scan(&e.ID, &e.UserID, &e.Name, &e.DefaultModality, &e.IsActive, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (t *writeTx) InsertExercise(ctx context.Context, e domain.Exercise) error {
	const stmt = `INSERT INTO exercises (id, user_id, name, default_modality, is_active, created_at, updated_at)
        VALUES ($1::uuid,$2,$3,$4::modality,$5,$6,$6)`

	_, err := t.tx.Exec(ctx, stmt, e.ID, e.UserID, e.Name, string(e.DefaultModality), e.IsActive, e.CreatedAt)
	return translateError(err)
}

func (t *writeTx) InsertStrengthSet(ctx context.Context, s domain.StrengthSet) error {
	const stmt = `INSERT INTO strength_sets (id, user_id, workout_id, exercise_id, set_index, weight, reps, duration_seconds, rpe, notes)
        VALUES ($1::uuid,$2,$3::uuid,$4::uuid,$5,$6,$7,$8,$9,$10)`

	_, err := t.tx.Exec(ctx, stmt,
		s.ID,
		s.UserID,
		s.WorkoutID,
		s.ExerciseID,
		s.SetIndex,
		s.Weight,
		s.Reps,
		s.DurationSeconds,
		s.RPE,
		s.Notes,
	)
	return translateError(err)
}

func (t *writeTx) InsertCardioSession(ctx context.Context, c domain.CardioSession) error {
	const stmt = `INSERT INTO cardio_sessions (id, user_id, workout_id, distance_miles, duration_seconds, incline, speed_mph, resistance, rpms, notes)
        VALUES ($1::uuid,$2,$3::uuid,$4,$5,$6,$7,$8,$9,$10)`

	_, err := t.tx.Exec(ctx, stmt,
		c.ID,
		c.UserID,
		c.WorkoutID,
		c.DistanceMiles,
		c.DurationSeconds,
		c.Incline,
		c.SpeedMPH,
		c.Resistance,
		c.RPMs,
		c.Notes,
	)
	return translateError(err)
}

// Nested opens a savepoint. Begin on a pgx.Tx issues SAVEPOINT, Rollback rolls back to it
// and Commit releases it.
func (t *writeTx) Nested(ctx context.Context, fn func(ctx context.Context, tx domain.WriteTx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, &writeTx{tx: sp}); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return multierr.Append(err, rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}
