// Package domain defines workout ingestion and day aggregation for athos.
package domain

import (
	"strings"
	"time"
)

// Modality classifies workouts and the default use of an exercise.
type Modality string

const (
	ModalityStrength Modality = "STRENGTH"
	ModalityCardio   Modality = "CARDIO"
	ModalityOther    Modality = "OTHER"
)

// ParseModality accepts the canonical upper-case names.
func ParseModality(value string) (Modality, error) {
	switch m := Modality(strings.TrimSpace(value)); m {
	case ModalityStrength, ModalityCardio, ModalityOther:
		return m, nil
	default:
		return "", validationf("unknown workout_type %q", value)
	}
}

// MuscleGroup is operator-managed reference data.
type MuscleGroup struct {
	ID   string
	Name string
}

// MuscleGroupLink attaches a muscle group to an exercise.
type MuscleGroupLink struct {
	ExerciseID      string
	MuscleGroupID   string
	MuscleGroupName string
	IsPrimary       bool
}

// Exercise is a per-user catalog entry, unique by case-insensitive name.
type Exercise struct {
	ID              string
	UserID          int64
	Name            string
	DefaultModality Modality
	IsActive        bool
	CreatedAt       time.Time
}

// Workout is the header row owning either strength sets or one cardio session.
type Workout struct {
	ID                  string
	UserID              int64
	Type                Modality
	Title               *string
	StartTS             time.Time
	EndTS               *time.Time
	Source              *string
	Provider            *string
	ClientCorrelationID *string
	Version             int
	CreatedAt           time.Time
}

// StrengthSet is one set of a strength workout. ExerciseName is populated on reads.
type StrengthSet struct {
	ID              string
	UserID          int64
	WorkoutID       string
	ExerciseID      string
	ExerciseName    string
	SetIndex        int
	Weight          *float64
	Reps            *int
	DurationSeconds *int
	RPE             *float64
	Notes           *string
}

// Load is weight times reps, reported only when both are present.
func (s StrengthSet) Load() (float64, bool) {
	if s.Weight == nil || s.Reps == nil {
		return 0, false
	}
	return *s.Weight * float64(*s.Reps), true
}

// CardioSession is the single child of a cardio workout.
type CardioSession struct {
	ID              string
	UserID          int64
	WorkoutID       string
	DistanceMiles   *float64
	DurationSeconds *int
	Incline         *float64
	SpeedMPH        *float64
	Resistance      *float64
	RPMs            *float64
	Notes           *string
}

// WorkoutSummary is the list projection of a workout.
type WorkoutSummary struct {
	Workout
	StrengthSetCount     int
	CardioSessionCreated bool
}

// WorkoutDetail is a workout with its children shaped by type.
type WorkoutDetail struct {
	Workout
	StrengthSets  []StrengthSet
	CardioSession *CardioSession
}

// Cursor models the keyset pagination token for workout lists.
type Cursor struct {
	StartTS time.Time
	ID      string
}
