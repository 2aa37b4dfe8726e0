package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/tarushsinha/ATHOS/internal/observability"
)

// Paging bounds shared by the read operations.
const (
	MaxListLimit     = 200
	MaxDashboardTopK = 50
)

// CreateWorkoutResult describes a committed or replayed create.
type CreateWorkoutResult struct {
	WorkoutID            string
	WorkoutType          Modality
	StrengthSetCount     int
	CardioSessionCreated bool
	Replay               bool
}

// Service orchestrates workout workflows.
type Service struct {
	store    WorkoutStore
	resolver *ExerciseResolver
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(store WorkoutStore) *Service {
	return &Service{store: store, resolver: NewExerciseResolver(), now: time.Now}
}

// CreateWorkout persists the header and typed children in one transaction. A retry carrying
// an already stored client correlation id is answered from the stored workout with Replay set.
func (s *Service) CreateWorkout(ctx context.Context, userID int64, input CreateWorkoutInput) (_ *CreateWorkoutResult, err error) {
	ctx, span := observability.Tracer.Start(ctx, "service.workouts.create")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.String("workout_type", string(input.Type)))

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	workout := Workout{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Type:                input.Type,
		Title:               input.Title,
		StartTS:             input.StartTS.UTC(),
		EndTS:               utcPtr(input.EndTS),
		Source:              input.Source,
		Provider:            input.Provider,
		ClientCorrelationID: input.ClientCorrelationID,
		Version:             1,
		CreatedAt:           now,
	}
	result := CreateWorkoutResult{WorkoutID: workout.ID, WorkoutType: workout.Type}
	var created, reread []string

	txErr := s.store.InTx(ctx, func(ctx context.Context, tx WriteTx) error {
		created, reread = created[:0], reread[:0]
		if err := tx.InsertWorkout(ctx, workout); err != nil {
			return err
		}
		switch p := input.Payload.(type) {
		case StrengthPayload:
			for i, in := range p.Sets {
				exercise, resolution, err := s.resolver.Resolve(ctx, tx, userID, in.Exercise)
				if err != nil {
					return err
				}
				switch resolution {
				case ResolvedCreated:
					created = append(created, exercise.ID)
				case ResolvedAfterConflict:
					reread = append(reread, exercise.ID)
				}
				setIndex := i + 1
				if in.SetIndex != nil {
					setIndex = *in.SetIndex
				}
				set := StrengthSet{
					ID:              uuid.NewString(),
					UserID:          userID,
					WorkoutID:       workout.ID,
					ExerciseID:      exercise.ID,
					ExerciseName:    exercise.Name,
					SetIndex:        setIndex,
					Weight:          in.Weight,
					Reps:            in.Reps,
					DurationSeconds: in.DurationSeconds,
					RPE:             in.RPE,
					Notes:           in.Notes,
				}
				if err := tx.InsertStrengthSet(ctx, set); err != nil {
					return err
				}
			}
			result.StrengthSetCount = len(p.Sets)
		case CardioPayload:
			session := CardioSession{
				ID:              uuid.NewString(),
				UserID:          userID,
				WorkoutID:       workout.ID,
				DistanceMiles:   p.Session.DistanceMiles,
				DurationSeconds: p.Session.DurationSeconds,
				Incline:         p.Session.Incline,
				SpeedMPH:        p.Session.SpeedMPH,
				Resistance:      p.Session.Resistance,
				RPMs:            p.Session.RPMs,
				Notes:           p.Session.Notes,
			}
			if err := tx.InsertCardioSession(ctx, session); err != nil {
				return err
			}
			result.CardioSessionCreated = true
		}
		return nil
	})
	if txErr != nil {
		if input.ClientCorrelationID != nil && IsConstraintViolation(txErr, ConstraintWorkoutCorrelation) {
			return s.replay(ctx, userID, *input.ClientCorrelationID, txErr)
		}
		return nil, txErr
	}

	recordResolutions(ctx, userID, created, reread)
	observability.RecordWorkoutCreated(string(workout.Type), now)
	emit(ctx, WorkoutCreated{
		UserID:               userID,
		WorkoutID:            workout.ID,
		WorkoutType:          workout.Type,
		StartTS:              workout.StartTS,
		StrengthSetCount:     result.StrengthSetCount,
		CardioSessionCreated: result.CardioSessionCreated,
		ClientCorrelationID:  workout.ClientCorrelationID,
	})
	return &result, nil
}

func (s *Service) replay(ctx context.Context, userID int64, correlationID string, conflict error) (*CreateWorkoutResult, error) {
	existing, err := s.store.FindWorkoutByCorrelationID(ctx, userID, correlationID)
	if err != nil {
		return nil, multierr.Append(conflict, err)
	}
	if existing == nil {
		return nil, conflict
	}

	observability.RecordIdempotentReplay()
	emit(ctx, WorkoutReplayed{UserID: userID, WorkoutID: existing.ID, ClientCorrelationID: correlationID})
	return &CreateWorkoutResult{
		WorkoutID:   existing.ID,
		WorkoutType: existing.Type,
		Replay:      true,
	}, nil
}

// ListWorkouts returns summaries of the workouts starting within the day, newest first.
func (s *Service) ListWorkouts(ctx context.Context, userID int64, day DayRange, cursor *Cursor, limit int) (_ []WorkoutSummary, _ *Cursor, err error) {
	ctx, span := observability.Tracer.Start(ctx, "service.workouts.list")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	if limit < 1 || limit > MaxListLimit {
		return nil, nil, validationf("limit must be between 1 and %d", MaxListLimit)
	}
	return s.store.ListWorkoutSummaries(ctx, userID, day, cursor, limit)
}

// GetWorkoutDetail returns the workout with its children. Workouts of other users are not found.
func (s *Service) GetWorkoutDetail(ctx context.Context, userID int64, workoutID string) (_ *WorkoutDetail, err error) {
	ctx, span := observability.Tracer.Start(ctx, "service.workouts.detail")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	if _, parseErr := uuid.Parse(workoutID); parseErr != nil {
		return nil, ErrWorkoutNotFound
	}
	workout, err := s.store.GetWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}

	detail := &WorkoutDetail{Workout: *workout, StrengthSets: []StrengthSet{}}
	switch workout.Type {
	case ModalityStrength:
		sets, err := s.store.ListStrengthSets(ctx, userID, []string{workout.ID})
		if err != nil {
			return nil, err
		}
		sortSets(sets)
		detail.StrengthSets = append(detail.StrengthSets, sets...)
	case ModalityCardio:
		sessions, err := s.store.ListCardioSessions(ctx, userID, []string{workout.ID})
		if err != nil {
			return nil, err
		}
		if len(sessions) > 0 {
			detail.CardioSession = &sessions[0]
		}
	}
	return detail, nil
}

// GetDayDashboard aggregates the day's workouts, newest first, capped at limit.
func (s *Service) GetDayDashboard(ctx context.Context, userID int64, day DayRange, limit, topK int) (_ *DayDashboard, err error) {
	ctx, span := observability.Tracer.Start(ctx, "service.dashboard.day")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	if limit < 1 || limit > MaxListLimit {
		return nil, validationf("limit must be between 1 and %d", MaxListLimit)
	}
	if topK < 1 || topK > MaxDashboardTopK {
		return nil, validationf("top_k must be between 1 and %d", MaxDashboardTopK)
	}

	workouts, err := s.store.ListWorkoutsInRange(ctx, userID, day, limit)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		dashboard := AggregateDay(nil, nil, nil, nil, topK)
		observability.RecordDashboardServed()
		return &dashboard, nil
	}

	var strengthIDs, cardioIDs []string
	for _, w := range workouts {
		switch w.Type {
		case ModalityStrength:
			strengthIDs = append(strengthIDs, w.ID)
		case ModalityCardio:
			cardioIDs = append(cardioIDs, w.ID)
		}
	}

	var sets []StrengthSet
	if len(strengthIDs) > 0 {
		if sets, err = s.store.ListStrengthSets(ctx, userID, strengthIDs); err != nil {
			return nil, err
		}
	}
	var sessions []CardioSession
	if len(cardioIDs) > 0 {
		if sessions, err = s.store.ListCardioSessions(ctx, userID, cardioIDs); err != nil {
			return nil, err
		}
	}

	var links []MuscleGroupLink
	if exerciseIDs := distinctExerciseIDs(sets); len(exerciseIDs) > 0 {
		if links, err = s.store.ListMuscleGroupLinks(ctx, exerciseIDs); err != nil {
			return nil, err
		}
	}

	dashboard := AggregateDay(workouts, sets, sessions, links, topK)
	observability.RecordDashboardServed()
	return &dashboard, nil
}

// DeleteWorkout removes the workout and, through the store's cascade, its children.
func (s *Service) DeleteWorkout(ctx context.Context, userID int64, workoutID string) (err error) {
	ctx, span := observability.Tracer.Start(ctx, "service.workouts.delete")
	defer func() {
		observability.EndSpanWithErrCheck(span, err)
	}()

	if _, parseErr := uuid.Parse(workoutID); parseErr != nil {
		return ErrWorkoutNotFound
	}
	deleted, err := s.store.DeleteWorkout(ctx, userID, workoutID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkoutNotFound
	}
	emitSimple(ctx, EventWorkoutDeleted, log.Fields{"user_id": userID, "workout_id": workoutID})
	return nil
}

// recordResolutions reports exercises created or re-read by a committed create.
func recordResolutions(ctx context.Context, userID int64, created, reread []string) {
	for _, id := range created {
		observability.RecordExerciseCreated()
		emitSimple(ctx, EventExerciseCreated, log.Fields{"user_id": userID, "exercise_id": id})
	}
	for _, id := range reread {
		observability.RecordExerciseNameConflict()
		emitSimple(ctx, EventExerciseConflictReread, log.Fields{"user_id": userID, "exercise_id": id})
	}
}

func distinctExerciseIDs(sets []StrengthSet) []string {
	seen := make(map[string]struct{}, len(sets))
	out := make([]string, 0, len(sets))
	for _, set := range sets {
		if _, ok := seen[set.ExerciseID]; ok {
			continue
		}
		seen[set.ExerciseID] = struct{}{}
		out = append(out, set.ExerciseID)
	}
	return out
}

func utcPtr(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	utc := ts.UTC()
	return &utc
}
