package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tarushsinha/ATHOS/internal/domain"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

var knownConstraints = []string{
	domain.ConstraintWorkoutCorrelation,
	domain.ConstraintExerciseName,
	domain.ConstraintCardioPerWorkout,
	domain.ConstraintUserEmail,
	domain.ConstraintSetWorkoutFK,
	domain.ConstraintSetExerciseFK,
	domain.ConstraintCardioWorkoutFK,
}

// translateError maps unique and foreign-key violations to *domain.ConstraintViolation.
// Other errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != sqlStateUniqueViolation && pgErr.Code != sqlStateForeignKeyViolation {
		return err
	}
	name := pgErr.ConstraintName
	if name == "" {
		// Some poolers strip the constraint field; the message still names it.
		for _, candidate := range knownConstraints {
			if strings.Contains(pgErr.Message, candidate) || strings.Contains(pgErr.Detail, candidate) {
				name = candidate
				break
			}
		}
	}
	return &domain.ConstraintViolation{Constraint: name, Err: err}
}
