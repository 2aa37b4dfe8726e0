package domain

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tarushsinha/ATHOS/internal/logging"
)

// Event names written to the structured log.
const (
	EventWorkoutCreated         = "workout_created"
	EventWorkoutIdempotencyHit  = "workout_idempotency_hit"
	EventWorkoutDeleted         = "workout_deleted"
	EventExerciseCreated        = "exercise_created"
	EventExerciseConflictReread = "exercise_name_conflict_reread"
)

// WorkoutCreated is logged when a new workout commits.
type WorkoutCreated struct {
	UserID               int64
	WorkoutID            string
	WorkoutType          Modality
	StartTS              time.Time
	StrengthSetCount     int
	CardioSessionCreated bool
	ClientCorrelationID  *string
}

func (e WorkoutCreated) fields() log.Fields {
	f := log.Fields{
		"event":                  EventWorkoutCreated,
		"user_id":                e.UserID,
		"workout_id":             e.WorkoutID,
		"workout_type":           string(e.WorkoutType),
		"start_ts":               e.StartTS.Format(time.RFC3339),
		"strength_set_count":     e.StrengthSetCount,
		"cardio_session_created": e.CardioSessionCreated,
	}
	if e.ClientCorrelationID != nil {
		f["client_uuid"] = *e.ClientCorrelationID
	}
	return f
}

// WorkoutReplayed is logged when a create is answered from an existing workout.
type WorkoutReplayed struct {
	UserID              int64
	WorkoutID           string
	ClientCorrelationID string
}

func (e WorkoutReplayed) fields() log.Fields {
	return log.Fields{
		"event":       EventWorkoutIdempotencyHit,
		"user_id":     e.UserID,
		"workout_id":  e.WorkoutID,
		"client_uuid": e.ClientCorrelationID,
	}
}

type loggedEvent interface {
	fields() log.Fields
}

func emit(ctx context.Context, event loggedEvent) {
	logging.FromContext(ctx).WithFields(event.fields()).Info("domain_event")
}

func emitSimple(ctx context.Context, name string, fields log.Fields) {
	logging.FromContext(ctx).WithFields(fields).WithField("event", name).Info("domain_event")
}
