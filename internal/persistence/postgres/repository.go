// Package postgres implements the workout and user stores on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
	"github.com/tarushsinha/ATHOS/internal/observability"
)

var (
	_ domain.WorkoutStore = (*Repository)(nil)
	_ identity.UserStore  = (*Repository)(nil)
)

const workoutColumns = `w.id::text, w.user_id, w.workout_type::text, w.title, w.start_ts, w.end_ts, w.source, w.provider,
        w.client_uuid::text, w.version, w.created_at`

// Repository provides Postgres-backed persistence for workouts, exercises and users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx implements domain.WorkoutStore.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.WriteTx) error) (err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.tx")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = multierr.Append(err, rbErr)
			}
		}
	}()

	if err = fn(ctx, &writeTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return translateError(err)
	}
	return nil
}

// FindWorkoutByCorrelationID implements domain.WorkoutStore.
func (r *Repository) FindWorkoutByCorrelationID(ctx context.Context, userID int64, correlationID string) (*domain.Workout, error) {
	query := `SELECT ` + workoutColumns + `
        FROM workouts w WHERE w.user_id=$1 AND w.client_uuid=$2::uuid`
	return r.getWorkout(ctx, query, userID, correlationID)
}

// GetWorkout implements domain.WorkoutStore.
func (r *Repository) GetWorkout(ctx context.Context, userID int64, workoutID string) (*domain.Workout, error) {
	query := `SELECT ` + workoutColumns + `
        FROM workouts w WHERE w.user_id=$1 AND w.id=$2::uuid`
	return r.getWorkout(ctx, query, userID, workoutID)
}

func (r *Repository) getWorkout(ctx context.Context, query string, args ...any) (*domain.Workout, error) {
	w, err := scanWorkout(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// ListWorkoutSummaries implements domain.WorkoutStore.
func (r *Repository) ListWorkoutSummaries(ctx context.Context, userID int64, day domain.DayRange, cursor *domain.Cursor, limit int) (_ []domain.WorkoutSummary, _ *domain.Cursor, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.workouts.list")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Bool("cursor", cursor != nil))

	args := []any{userID, day.Start, day.End, limit}
	query := `SELECT ` + workoutColumns + `,
        (SELECT count(*) FROM strength_sets s WHERE s.workout_id = w.id),
        EXISTS (SELECT 1 FROM cardio_sessions c WHERE c.workout_id = w.id)
        FROM workouts w WHERE w.user_id=$1 AND w.start_ts >= $2 AND w.start_ts < $3`

	if cursor != nil {
		query += ` AND (w.start_ts, w.id) < ($5, $6::uuid)`
		args = append(args, cursor.StartTS, cursor.ID)
	}
	query += ` ORDER BY w.start_ts DESC, w.id DESC LIMIT $4`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.WorkoutSummary, 0, limit)
	for rows.Next() {
		var summary domain.WorkoutSummary
		var setCount int64
		if err := rows.Scan(append(workoutDest(&summary.Workout), &setCount, &summary.CardioSessionCreated)...); err != nil {
			return nil, nil, err
		}
		summary.StrengthSetCount = int(setCount)
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{StartTS: last.StartTS, ID: last.ID}
	}
	return results, nextCursor, nil
}

// ListWorkoutsInRange implements domain.WorkoutStore.
func (r *Repository) ListWorkoutsInRange(ctx context.Context, userID int64, day domain.DayRange, limit int) (_ []domain.Workout, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.workouts.range")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	query := `SELECT ` + workoutColumns + `
        FROM workouts w WHERE w.user_id=$1 AND w.start_ts >= $2 AND w.start_ts < $3
        ORDER BY w.start_ts DESC, w.id DESC LIMIT $4`

	rows, err := r.pool.Query(ctx, query, userID, day.Start, day.End, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Workout, 0, limit)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, w)
	}
	return results, rows.Err()
}

// ListStrengthSets implements domain.WorkoutStore.
func (r *Repository) ListStrengthSets(ctx context.Context, userID int64, workoutIDs []string) (_ []domain.StrengthSet, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.strength_sets.list")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workouts", len(workoutIDs)))

	const query = `SELECT s.id::text, s.user_id, s.workout_id::text, s.exercise_id::text, e.name, s.set_index,
        s.weight::float8, s.reps, s.duration_seconds, s.rpe::float8, s.notes
        FROM strength_sets s JOIN exercises e ON e.id = s.exercise_id
        WHERE s.user_id=$1 AND s.workout_id = ANY($2::text[]::uuid[])
        ORDER BY s.set_index, s.id`

	rows, err := r.pool.Query(ctx, query, userID, workoutIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.StrengthSet, 0)
	for rows.Next() {
		var s domain.StrengthSet
		if err := rows.Scan(&s.ID, &s.UserID, &s.WorkoutID, &s.ExerciseID, &s.ExerciseName, &s.SetIndex,
			&s.Weight, &s.Reps, &s.DurationSeconds, &s.RPE, &s.Notes); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// ListCardioSessions implements domain.WorkoutStore.
func (r *Repository) ListCardioSessions(ctx context.Context, userID int64, workoutIDs []string) (_ []domain.CardioSession, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.cardio_sessions.list")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workouts", len(workoutIDs)))

	const query = `SELECT c.id::text, c.user_id, c.workout_id::text, c.distance_miles::float8, c.duration_seconds,
        c.incline::float8, c.speed_mph::float8, c.resistance::float8, c.rpms::float8, c.notes
        FROM cardio_sessions c
        WHERE c.user_id=$1 AND c.workout_id = ANY($2::text[]::uuid[])`

	rows, err := r.pool.Query(ctx, query, userID, workoutIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.CardioSession, 0)
	for rows.Next() {
		var c domain.CardioSession
		if err := rows.Scan(&c.ID, &c.UserID, &c.WorkoutID, &c.DistanceMiles, &c.DurationSeconds,
			&c.Incline, &c.SpeedMPH, &c.Resistance, &c.RPMs, &c.Notes); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// ListMuscleGroupLinks implements domain.WorkoutStore.
func (r *Repository) ListMuscleGroupLinks(ctx context.Context, exerciseIDs []string) (_ []domain.MuscleGroupLink, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.muscle_group_links.list")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercises", len(exerciseIDs)))

	const query = `SELECT m.exercise_id::text, g.id::text, g.name, m.is_primary
        FROM exercise_muscle_map m JOIN muscle_groups g ON g.id = m.muscle_group_id
        WHERE m.exercise_id = ANY($1::text[]::uuid[])
        ORDER BY g.name, m.exercise_id`

	rows, err := r.pool.Query(ctx, query, exerciseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.MuscleGroupLink, 0)
	for rows.Next() {
		var l domain.MuscleGroupLink
		if err := rows.Scan(&l.ExerciseID, &l.MuscleGroupID, &l.MuscleGroupName, &l.IsPrimary); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// LinkMuscleGroup attaches the named muscle group to an exercise, replacing the primary flag
// of an existing link. It reports false when no muscle group has that name. The mapping is
// operator-managed reference data: no API route writes it, and tests use this to seed it.
func (r *Repository) LinkMuscleGroup(ctx context.Context, exerciseID, muscleGroupName string, primary bool) (bool, error) {
	const stmt = `INSERT INTO exercise_muscle_map (exercise_id, muscle_group_id, is_primary)
        SELECT $1::uuid, g.id, $3 FROM muscle_groups g WHERE g.name = $2
        ON CONFLICT (exercise_id, muscle_group_id) DO UPDATE SET is_primary = EXCLUDED.is_primary`

	tag, err := r.pool.Exec(ctx, stmt, exerciseID, muscleGroupName, primary)
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWorkout implements domain.WorkoutStore. Sets and sessions cascade.
func (r *Repository) DeleteWorkout(ctx context.Context, userID int64, workoutID string) (_ bool, err error) {
	ctx, span := observability.Tracer.Start(ctx, "repository.workouts.delete")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE user_id=$1 AND id=$2::uuid`, userID, workoutID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func workoutDest(w *domain.Workout) []any {
	return []any{&w.ID, &w.UserID, &w.Type, &w.Title, &w.StartTS, &w.EndTS, &w.Source, &w.Provider,
		&w.ClientCorrelationID, &w.Version, &w.CreatedAt}
}

func scanWorkout(row pgx.Row) (domain.Workout, error) {
	var w domain.Workout
	err := row.Scan(workoutDest(&w)...)
	return w, err
}
