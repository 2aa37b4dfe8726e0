package api

import (
	"time"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
)

// CreateWorkoutResponse describes the response body for create.
type CreateWorkoutResponse struct {
	WorkoutID            string `json:"workout_id"`
	WorkoutType          string `json:"workout_type"`
	StrengthSetCount     int    `json:"strength_set_count"`
	CardioSessionCreated bool   `json:"cardio_session_created"`
	Replay               bool   `json:"idempotent_replay"`
}

// WorkoutView is the workout header shared by list, detail and dashboard responses.
type WorkoutView struct {
	ID          string     `json:"id"`
	WorkoutType string     `json:"workout_type"`
	Title       *string    `json:"title"`
	StartTS     time.Time  `json:"start_ts"`
	EndTS       *time.Time `json:"end_ts"`
	Source      *string    `json:"source"`
	Provider    *string    `json:"provider"`
	ClientUUID  *string    `json:"client_uuid"`
}

// WorkoutListItem adds child counts to the header.
type WorkoutListItem struct {
	WorkoutView
	StrengthSetCount     int  `json:"strength_set_count"`
	CardioSessionCreated bool `json:"cardio_session_created"`
}

// ListWorkoutsResponse packages list results.
type ListWorkoutsResponse struct {
	Items      []WorkoutListItem `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// StrengthSetView exposes a stored set.
type StrengthSetView struct {
	ID              string   `json:"id"`
	WorkoutID       string   `json:"workout_id"`
	ExerciseID      string   `json:"exercise_id"`
	ExerciseName    string   `json:"exercise_name"`
	SetIndex        int      `json:"set_index"`
	Weight          *float64 `json:"weight"`
	Reps            *int     `json:"reps"`
	DurationSeconds *int     `json:"duration_seconds"`
	RPE             *float64 `json:"rpe"`
	Notes           *string  `json:"notes"`
}

// DashboardSetView is a set with its attributed muscle groups.
type DashboardSetView struct {
	StrengthSetView
	MuscleGroups []string `json:"muscle_groups"`
}

// CardioSessionView exposes a stored cardio session.
type CardioSessionView struct {
	ID              string   `json:"id"`
	WorkoutID       string   `json:"workout_id"`
	DistanceMiles   *float64 `json:"distance_miles"`
	DurationSeconds *int     `json:"duration_seconds"`
	Incline         *float64 `json:"incline"`
	SpeedMPH        *float64 `json:"speed_mph"`
	Resistance      *float64 `json:"resistance"`
	RPMs            *float64 `json:"rpms"`
	Notes           *string  `json:"notes"`
}

// WorkoutDetailResponse is the body of GET /v1/workouts/{id}.
type WorkoutDetailResponse struct {
	WorkoutView
	StrengthSets  []StrengthSetView  `json:"strength_sets"`
	CardioSession *CardioSessionView `json:"cardio_session"`
}

// DashboardWorkoutView is one workout of the day view.
type DashboardWorkoutView struct {
	WorkoutView
	StrengthSets  []DashboardSetView `json:"strength_sets"`
	CardioSession *CardioSessionView `json:"cardio_session"`
}

// MaxWeightView is the heaviest weight recorded for an exercise.
type MaxWeightView struct {
	ExerciseName string  `json:"exercise_name"`
	MaxWeight    float64 `json:"max_weight"`
}

// MuscleGroupLoadView is the load attributed to a muscle group.
type MuscleGroupLoadView struct {
	MuscleGroup string  `json:"muscle_group"`
	Load        float64 `json:"load"`
}

// CardioTotalsView sums the day's cardio.
type CardioTotalsView struct {
	TotalDistanceMiles   float64 `json:"total_distance_miles"`
	TotalDurationSeconds *int    `json:"total_duration_seconds"`
}

// DayTelemetryView is the rolled-up load of the day.
type DayTelemetryView struct {
	TotalTrainingLoad       float64               `json:"total_training_load"`
	BestSetLoad             *float64              `json:"best_set_load"`
	BestSetExerciseName     *string               `json:"best_set_exercise_name"`
	MaxWeightPerExercise    []MaxWeightView       `json:"max_weight_per_exercise"`
	MuscleGroupTrainingLoad []MuscleGroupLoadView `json:"muscle_group_training_load"`
	CardioTotals            CardioTotalsView      `json:"cardio_totals"`
}

// DashboardDayResponse is the body of GET /v1/dashboard/day.
type DashboardDayResponse struct {
	Workouts  []DashboardWorkoutView `json:"workouts"`
	Telemetry DayTelemetryView       `json:"telemetry"`
}

// TokenResponse carries an access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	BirthYear  int    `json:"birth_year"`
	BirthMonth int    `json:"birth_month"`
}

func toWorkoutView(w domain.Workout) WorkoutView {
	view := WorkoutView{
		ID:          w.ID,
		WorkoutType: string(w.Type),
		Title:       w.Title,
		StartTS:     w.StartTS.UTC(),
		Source:      w.Source,
		Provider:    w.Provider,
		ClientUUID:  w.ClientCorrelationID,
	}
	if w.EndTS != nil {
		end := w.EndTS.UTC()
		view.EndTS = &end
	}
	return view
}

func toStrengthSetView(s domain.StrengthSet) StrengthSetView {
	return StrengthSetView{
		ID:              s.ID,
		WorkoutID:       s.WorkoutID,
		ExerciseID:      s.ExerciseID,
		ExerciseName:    s.ExerciseName,
		SetIndex:        s.SetIndex,
		Weight:          s.Weight,
		Reps:            s.Reps,
		DurationSeconds: s.DurationSeconds,
		RPE:             s.RPE,
		Notes:           s.Notes,
	}
}

func toCardioSessionView(c *domain.CardioSession) *CardioSessionView {
	if c == nil {
		return nil
	}
	return &CardioSessionView{
		ID:              c.ID,
		WorkoutID:       c.WorkoutID,
		DistanceMiles:   c.DistanceMiles,
		DurationSeconds: c.DurationSeconds,
		Incline:         c.Incline,
		SpeedMPH:        c.SpeedMPH,
		Resistance:      c.Resistance,
		RPMs:            c.RPMs,
		Notes:           c.Notes,
	}
}

func toWorkoutDetailResponse(d domain.WorkoutDetail) WorkoutDetailResponse {
	resp := WorkoutDetailResponse{
		WorkoutView:   toWorkoutView(d.Workout),
		StrengthSets:  make([]StrengthSetView, 0, len(d.StrengthSets)),
		CardioSession: toCardioSessionView(d.CardioSession),
	}
	for _, s := range d.StrengthSets {
		resp.StrengthSets = append(resp.StrengthSets, toStrengthSetView(s))
	}
	return resp
}

func toDashboardDayResponse(d domain.DayDashboard) DashboardDayResponse {
	resp := DashboardDayResponse{Workouts: make([]DashboardWorkoutView, 0, len(d.Workouts))}
	for _, w := range d.Workouts {
		item := DashboardWorkoutView{
			WorkoutView:   toWorkoutView(w.Workout),
			StrengthSets:  make([]DashboardSetView, 0, len(w.StrengthSets)),
			CardioSession: toCardioSessionView(w.CardioSession),
		}
		for _, s := range w.StrengthSets {
			item.StrengthSets = append(item.StrengthSets, DashboardSetView{
				StrengthSetView: toStrengthSetView(s.StrengthSet),
				MuscleGroups:    s.MuscleGroups,
			})
		}
		resp.Workouts = append(resp.Workouts, item)
	}

	t := d.Telemetry
	resp.Telemetry = DayTelemetryView{
		TotalTrainingLoad:       t.TotalTrainingLoad,
		BestSetLoad:             t.BestSetLoad,
		BestSetExerciseName:     t.BestSetExerciseName,
		MaxWeightPerExercise:    make([]MaxWeightView, 0, len(t.MaxWeightPerExercise)),
		MuscleGroupTrainingLoad: make([]MuscleGroupLoadView, 0, len(t.MuscleGroupTrainingLoad)),
		CardioTotals: CardioTotalsView{
			TotalDistanceMiles:   t.CardioTotals.TotalDistanceMiles,
			TotalDurationSeconds: t.CardioTotals.TotalDurationSeconds,
		},
	}
	for _, m := range t.MaxWeightPerExercise {
		resp.Telemetry.MaxWeightPerExercise = append(resp.Telemetry.MaxWeightPerExercise, MaxWeightView{ExerciseName: m.ExerciseName, MaxWeight: m.MaxWeight})
	}
	for _, g := range t.MuscleGroupTrainingLoad {
		resp.Telemetry.MuscleGroupTrainingLoad = append(resp.Telemetry.MuscleGroupTrainingLoad, MuscleGroupLoadView{MuscleGroup: g.MuscleGroup, Load: g.Load})
	}
	return resp
}

func toMeResponse(u identity.User) MeResponse {
	return MeResponse{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		BirthYear:  u.BirthYear,
		BirthMonth: u.BirthMonth,
	}
}
