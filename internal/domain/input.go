package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	maxTitleLength        = 255
	maxSourceLength       = 50
	maxProviderLength     = 100
	maxExerciseNameLength = 255
)

// WorkoutPayload is the typed child collection of a new workout.
// It is either a StrengthPayload or a CardioPayload.
type WorkoutPayload interface {
	requiredModality() Modality
}

// StrengthPayload carries the ordered strength sets of a STRENGTH workout.
type StrengthPayload struct {
	Sets []StrengthSetInput
}

func (StrengthPayload) requiredModality() Modality { return ModalityStrength }

// CardioPayload carries the single session of a CARDIO workout.
type CardioPayload struct {
	Session CardioSessionInput
}

func (CardioPayload) requiredModality() Modality { return ModalityCardio }

// NewWorkoutPayload builds the payload from the optional request parts.
// Exactly one of a non-empty set list or a cardio session must be given.
func NewWorkoutPayload(sets []StrengthSetInput, cardio *CardioSessionInput) (WorkoutPayload, error) {
	hasStrength := len(sets) > 0
	hasCardio := cardio != nil
	if hasStrength == hasCardio {
		return nil, validationf("provide exactly one of strength_sets or cardio_session")
	}
	if hasStrength {
		return StrengthPayload{Sets: sets}, nil
	}
	return CardioPayload{Session: *cardio}, nil
}

// ExerciseRef references an exercise by id or by free-text name. The id wins when both are set.
type ExerciseRef struct {
	ID   string
	Name string
}

// StrengthSetInput is one set in a create request. A nil SetIndex defaults to the 1-based position.
type StrengthSetInput struct {
	Exercise        ExerciseRef
	SetIndex        *int
	Weight          *float64
	Reps            *int
	DurationSeconds *int
	RPE             *float64
	Notes           *string
}

// CardioSessionInput is the cardio part of a create request.
type CardioSessionInput struct {
	DistanceMiles   *float64
	DurationSeconds *int
	Incline         *float64
	SpeedMPH        *float64
	Resistance      *float64
	RPMs            *float64
	Notes           *string
}

// CreateWorkoutInput captures the payload from the API layer.
type CreateWorkoutInput struct {
	Type                Modality
	Title               *string
	StartTS             time.Time
	EndTS               *time.Time
	Source              *string
	Provider            *string
	ClientCorrelationID *string
	Payload             WorkoutPayload
}

// Validate reports every problem with the input, each wrapping ErrValidation.
func (in CreateWorkoutInput) Validate() error {
	var errs error
	switch in.Type {
	case ModalityStrength, ModalityCardio, ModalityOther:
	default:
		errs = multierr.Append(errs, validationf("unknown workout_type %q", in.Type))
	}
	if in.StartTS.IsZero() {
		errs = multierr.Append(errs, validationf("start_ts is required"))
	}
	errs = multierr.Append(errs, checkLength("title", in.Title, maxTitleLength))
	errs = multierr.Append(errs, checkLength("source", in.Source, maxSourceLength))
	errs = multierr.Append(errs, checkLength("provider", in.Provider, maxProviderLength))
	if in.ClientCorrelationID != nil {
		if _, err := uuid.Parse(*in.ClientCorrelationID); err != nil {
			errs = multierr.Append(errs, validationf("client_uuid must be a UUID"))
		}
	}

	switch p := in.Payload.(type) {
	case nil:
		errs = multierr.Append(errs, validationf("provide exactly one of strength_sets or cardio_session"))
	case StrengthPayload:
		if in.Type != ModalityStrength {
			errs = multierr.Append(errs, validationf("workout_type must be STRENGTH when strength_sets are provided"))
		}
		if len(p.Sets) == 0 {
			errs = multierr.Append(errs, validationf("strength_sets must not be empty"))
		}
		for i, set := range p.Sets {
			errs = multierr.Append(errs, set.validate(i+1))
		}
	case CardioPayload:
		if in.Type != ModalityCardio {
			errs = multierr.Append(errs, validationf("workout_type must be CARDIO when cardio_session is provided"))
		}
		if d := p.Session.DurationSeconds; d != nil && *d < 0 {
			errs = multierr.Append(errs, validationf("cardio_session.duration_seconds must be >= 0"))
		}
	}
	return errs
}

func (s StrengthSetInput) validate(position int) error {
	var errs error
	if s.Exercise.ID != "" {
		if _, err := uuid.Parse(s.Exercise.ID); err != nil {
			errs = multierr.Append(errs, validationf("strength_sets[%d].exercise_id must be a UUID", position))
		}
	} else {
		name := strings.TrimSpace(s.Exercise.Name)
		switch {
		case name == "":
			errs = multierr.Append(errs, validationf("strength_sets[%d]: provide exercise_id or exercise_name", position))
		case utf8.RuneCountInString(name) > maxExerciseNameLength:
			errs = multierr.Append(errs, validationf("strength_sets[%d].exercise_name exceeds %d characters", position, maxExerciseNameLength))
		}
	}
	if s.SetIndex != nil && *s.SetIndex < 1 {
		errs = multierr.Append(errs, validationf("strength_sets[%d].set_index must be >= 1", position))
	}
	if s.Reps != nil && *s.Reps < 0 {
		errs = multierr.Append(errs, validationf("strength_sets[%d].reps must be >= 0", position))
	}
	if s.DurationSeconds != nil && *s.DurationSeconds < 0 {
		errs = multierr.Append(errs, validationf("strength_sets[%d].duration_seconds must be >= 0", position))
	}
	return errs
}

func checkLength(field string, value *string, max int) error {
	if value == nil || utf8.RuneCountInString(*value) <= max {
		return nil
	}
	return validationf("%s exceeds %d characters", field, max)
}
