// Package memory provides an in-memory store with the same constraint semantics as
// the Postgres schema, for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
)

var (
	_ domain.WorkoutStore = (*Store)(nil)
	_ identity.UserStore  = (*Store)(nil)
)

// Store keeps every table in maps guarded by one lock. A write transaction holds the
// lock from begin to commit, so transactions are serialised.
type Store struct {
	mu sync.RWMutex
	st *state
}

type linkKey struct {
	exerciseID    string
	muscleGroupID string
}

type state struct {
	nextUserID   int64
	users        map[int64]identity.User
	muscleGroups map[string]domain.MuscleGroup
	links        map[linkKey]bool
	exercises    map[string]domain.Exercise
	workouts     map[string]domain.Workout
	sets         map[string]domain.StrengthSet
	cardio       map[string]domain.CardioSession
}

func newState() *state {
	return &state{
		users:        make(map[int64]identity.User),
		muscleGroups: make(map[string]domain.MuscleGroup),
		links:        make(map[linkKey]bool),
		exercises:    make(map[string]domain.Exercise),
		workouts:     make(map[string]domain.Workout),
		sets:         make(map[string]domain.StrengthSet),
		cardio:       make(map[string]domain.CardioSession),
	}
}

func (s *state) clone() *state {
	out := newState()
	out.nextUserID = s.nextUserID
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.muscleGroups {
		out.muscleGroups[k] = v
	}
	for k, v := range s.links {
		out.links[k] = v
	}
	for k, v := range s.exercises {
		out.exercises[k] = v
	}
	for k, v := range s.workouts {
		out.workouts[k] = v
	}
	for k, v := range s.sets {
		out.sets[k] = v
	}
	for k, v := range s.cardio {
		out.cardio[k] = v
	}
	return out
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// DefaultMuscleGroups seeds development stores.
var DefaultMuscleGroups = []string{"Back", "Biceps", "Chest", "Core", "Glutes", "Hamstrings", "Quadriceps", "Shoulders", "Triceps"}

// NewSeededStore constructs a Store holding DefaultMuscleGroups.
func NewSeededStore() *Store {
	s := NewStore()
	for _, name := range DefaultMuscleGroups {
		if _, err := s.AddMuscleGroup(name); err != nil {
			panic(err)
		}
	}
	return s
}

// AddMuscleGroup inserts reference data. Names are unique. NewSeededStore uses it; the
// remaining reference-data helpers below serve operators and tests, not the API.
func (s *Store) AddMuscleGroup(name string) (domain.MuscleGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range s.st.muscleGroups {
		if group.Name == name {
			return domain.MuscleGroup{}, &domain.ConstraintViolation{Constraint: "muscle_groups_name_key", Err: fmt.Errorf("muscle group %q exists", name)}
		}
	}
	group := domain.MuscleGroup{ID: uuid.NewString(), Name: name}
	s.st.muscleGroups[group.ID] = group
	return group, nil
}

// MuscleGroupByName returns the seeded group with the exact name. Test helper.
func (s *Store) MuscleGroupByName(name string) (domain.MuscleGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, group := range s.st.muscleGroups {
		if group.Name == name {
			return group, true
		}
	}
	return domain.MuscleGroup{}, false
}

// LinkMuscleGroup attaches a muscle group to an exercise, replacing any previous link.
// The mapping is operator-managed; no API route writes it.
func (s *Store) LinkMuscleGroup(exerciseID, muscleGroupID string, primary bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.exercises[exerciseID]; !ok {
		return &domain.ConstraintViolation{Constraint: "exercise_muscle_map_exercise_id_fkey", Err: fmt.Errorf("exercise %s missing", exerciseID)}
	}
	if _, ok := s.st.muscleGroups[muscleGroupID]; !ok {
		return &domain.ConstraintViolation{Constraint: "exercise_muscle_map_muscle_group_id_fkey", Err: fmt.Errorf("muscle group %s missing", muscleGroupID)}
	}
	s.st.links[linkKey{exerciseID: exerciseID, muscleGroupID: muscleGroupID}] = primary
	return nil
}

// InTx implements domain.WorkoutStore.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.WriteTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	err := fn(ctx, &writeTx{st: s.st})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// FindWorkoutByCorrelationID implements domain.WorkoutStore.
func (s *Store) FindWorkoutByCorrelationID(ctx context.Context, userID int64, correlationID string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.st.workouts {
		if w.UserID == userID && w.ClientCorrelationID != nil && strings.EqualFold(*w.ClientCorrelationID, correlationID) {
			return &w, nil
		}
	}
	return nil, nil
}

// GetWorkout implements domain.WorkoutStore.
func (s *Store) GetWorkout(ctx context.Context, userID int64, workoutID string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.st.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	return &w, nil
}

// ListWorkoutSummaries implements domain.WorkoutStore.
func (s *Store) ListWorkoutSummaries(ctx context.Context, userID int64, day domain.DayRange, cursor *domain.Cursor, limit int) ([]domain.WorkoutSummary, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workouts := s.st.workoutsInRange(userID, day, cursor, limit)
	results := make([]domain.WorkoutSummary, 0, len(workouts))
	for _, w := range workouts {
		summary := domain.WorkoutSummary{Workout: w}
		for _, set := range s.st.sets {
			if set.WorkoutID == w.ID {
				summary.StrengthSetCount++
			}
		}
		for _, session := range s.st.cardio {
			if session.WorkoutID == w.ID {
				summary.CardioSessionCreated = true
				break
			}
		}
		results = append(results, summary)
	}

	var next *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		next = &domain.Cursor{StartTS: last.StartTS, ID: last.ID}
	}
	return results, next, nil
}

// ListWorkoutsInRange implements domain.WorkoutStore.
func (s *Store) ListWorkoutsInRange(ctx context.Context, userID int64, day domain.DayRange, limit int) ([]domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.st.workoutsInRange(userID, day, nil, limit), nil
}

func (s *state) workoutsInRange(userID int64, day domain.DayRange, cursor *domain.Cursor, limit int) []domain.Workout {
	out := make([]domain.Workout, 0)
	for _, w := range s.workouts {
		if w.UserID != userID || !day.Contains(w.StartTS) {
			continue
		}
		if cursor != nil && !before(w, *cursor) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTS.Equal(out[j].StartTS) {
			return out[i].StartTS.After(out[j].StartTS)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// before mirrors (start_ts, id) < (cursor.start_ts, cursor.id).
func before(w domain.Workout, c domain.Cursor) bool {
	if w.StartTS.Equal(c.StartTS) {
		return w.ID < c.ID
	}
	return w.StartTS.Before(c.StartTS)
}

// ListStrengthSets implements domain.WorkoutStore.
func (s *Store) ListStrengthSets(ctx context.Context, userID int64, workoutIDs []string) ([]domain.StrengthSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(workoutIDs)
	out := make([]domain.StrengthSet, 0)
	for _, set := range s.st.sets {
		if set.UserID != userID {
			continue
		}
		if _, ok := wanted[set.WorkoutID]; !ok {
			continue
		}
		exercise, ok := s.st.exercises[set.ExerciseID]
		if !ok || exercise.UserID != userID {
			continue
		}
		set.ExerciseName = exercise.Name
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SetIndex != out[j].SetIndex {
			return out[i].SetIndex < out[j].SetIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListCardioSessions implements domain.WorkoutStore.
func (s *Store) ListCardioSessions(ctx context.Context, userID int64, workoutIDs []string) ([]domain.CardioSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(workoutIDs)
	out := make([]domain.CardioSession, 0)
	for _, session := range s.st.cardio {
		if session.UserID != userID {
			continue
		}
		if _, ok := wanted[session.WorkoutID]; ok {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListMuscleGroupLinks implements domain.WorkoutStore.
func (s *Store) ListMuscleGroupLinks(ctx context.Context, exerciseIDs []string) ([]domain.MuscleGroupLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(exerciseIDs)
	out := make([]domain.MuscleGroupLink, 0)
	for key, primary := range s.st.links {
		if _, ok := wanted[key.exerciseID]; !ok {
			continue
		}
		out = append(out, domain.MuscleGroupLink{
			ExerciseID:      key.exerciseID,
			MuscleGroupID:   key.muscleGroupID,
			MuscleGroupName: s.st.muscleGroups[key.muscleGroupID].Name,
			IsPrimary:       primary,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MuscleGroupName != out[j].MuscleGroupName {
			return out[i].MuscleGroupName < out[j].MuscleGroupName
		}
		return out[i].ExerciseID < out[j].ExerciseID
	})
	return out, nil
}

// DeleteWorkout implements domain.WorkoutStore. Children are removed with the workout.
func (s *Store) DeleteWorkout(ctx context.Context, userID int64, workoutID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.st.workouts[workoutID]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(s.st.workouts, workoutID)
	for id, set := range s.st.sets {
		if set.WorkoutID == workoutID {
			delete(s.st.sets, id)
		}
	}
	for id, session := range s.st.cardio {
		if session.WorkoutID == workoutID {
			delete(s.st.cardio, id)
		}
	}
	return true, nil
}

// CountExercises returns the number of exercises the user owns. Test helper.
func (s *Store) CountExercises(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, exercise := range s.st.exercises {
		if exercise.UserID == userID {
			n++
		}
	}
	return n
}

// CountChildren returns the number of strength sets and cardio sessions of a workout.
// Test helper.
func (s *Store) CountChildren(workoutID string) (sets, sessions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, set := range s.st.sets {
		if set.WorkoutID == workoutID {
			sets++
		}
	}
	for _, session := range s.st.cardio {
		if session.WorkoutID == workoutID {
			sessions++
		}
	}
	return sets, sessions
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
