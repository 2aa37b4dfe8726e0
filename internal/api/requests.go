package api

import (
	"time"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
)

// StrengthSetRequest is one set in CreateWorkoutRequest.
type StrengthSetRequest struct {
	ExerciseID      *string  `json:"exercise_id"`
	ExerciseName    *string  `json:"exercise_name"`
	SetIndex        *int     `json:"set_index"`
	Weight          *float64 `json:"weight"`
	Reps            *int     `json:"reps"`
	DurationSeconds *int     `json:"duration_seconds"`
	RPE             *float64 `json:"rpe"`
	Notes           *string  `json:"notes"`
}

// CardioSessionRequest is the cardio part of CreateWorkoutRequest.
type CardioSessionRequest struct {
	DistanceMiles   *float64 `json:"distance_miles"`
	DurationSeconds *int     `json:"duration_seconds"`
	Incline         *float64 `json:"incline"`
	SpeedMPH        *float64 `json:"speed_mph"`
	Resistance      *float64 `json:"resistance"`
	RPMs            *float64 `json:"rpms"`
	Notes           *string  `json:"notes"`
}

// CreateWorkoutRequest is the payload for POST /v1/workouts.
type CreateWorkoutRequest struct {
	WorkoutType   string                `json:"workout_type"`
	Title         *string               `json:"title"`
	StartTS       *time.Time            `json:"start_ts"`
	EndTS         *time.Time            `json:"end_ts"`
	Source        *string               `json:"source"`
	Provider      *string               `json:"provider"`
	ClientUUID    *string               `json:"client_uuid"`
	StrengthSets  []StrengthSetRequest  `json:"strength_sets"`
	CardioSession *CardioSessionRequest `json:"cardio_session"`
}

// toInput converts the request into the domain input. Field-level checks happen in
// domain.CreateWorkoutInput.Validate.
func (r CreateWorkoutRequest) toInput() (domain.CreateWorkoutInput, error) {
	workoutType, err := domain.ParseModality(r.WorkoutType)
	if err != nil {
		return domain.CreateWorkoutInput{}, err
	}

	sets := make([]domain.StrengthSetInput, 0, len(r.StrengthSets))
	for _, s := range r.StrengthSets {
		ref := domain.ExerciseRef{}
		if s.ExerciseID != nil {
			ref.ID = *s.ExerciseID
		}
		if s.ExerciseName != nil {
			ref.Name = *s.ExerciseName
		}
		sets = append(sets, domain.StrengthSetInput{
			Exercise:        ref,
			SetIndex:        s.SetIndex,
			Weight:          s.Weight,
			Reps:            s.Reps,
			DurationSeconds: s.DurationSeconds,
			RPE:             s.RPE,
			Notes:           s.Notes,
		})
	}

	var cardio *domain.CardioSessionInput
	if c := r.CardioSession; c != nil {
		cardio = &domain.CardioSessionInput{
			DistanceMiles:   c.DistanceMiles,
			DurationSeconds: c.DurationSeconds,
			Incline:         c.Incline,
			SpeedMPH:        c.SpeedMPH,
			Resistance:      c.Resistance,
			RPMs:            c.RPMs,
			Notes:           c.Notes,
		}
	}

	payload, err := domain.NewWorkoutPayload(sets, cardio)
	if err != nil {
		return domain.CreateWorkoutInput{}, err
	}

	in := domain.CreateWorkoutInput{
		Type:                workoutType,
		Title:               r.Title,
		EndTS:               r.EndTS,
		Source:              r.Source,
		Provider:            r.Provider,
		ClientCorrelationID: r.ClientUUID,
		Payload:             payload,
	}
	if r.StartTS != nil {
		in.StartTS = *r.StartTS
	}
	return in, nil
}

// SignupRequest is the payload for POST /v1/auth/signup.
type SignupRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	BirthYear  int    `json:"birth_year"`
	BirthMonth int    `json:"birth_month"`
}

func (r SignupRequest) toInput() identity.SignupInput {
	return identity.SignupInput{
		Email:      r.Email,
		Name:       r.Name,
		Password:   r.Password,
		BirthYear:  r.BirthYear,
		BirthMonth: r.BirthMonth,
	}
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
