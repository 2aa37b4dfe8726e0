package domain_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/observability"
	"github.com/tarushsinha/ATHOS/internal/persistence/memory"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*domain.Service, *memory.Store) {
	t.Helper()
	store := memory.NewSeededStore()
	return domain.NewService(store), store
}

func strengthWorkout(start time.Time, names ...string) domain.CreateWorkoutInput {
	sets := make([]domain.StrengthSetInput, 0, len(names))
	for _, name := range names {
		sets = append(sets, domain.StrengthSetInput{
			Exercise: domain.ExerciseRef{Name: name},
			Weight:   ptr(100.0),
			Reps:     ptr(5),
		})
	}
	return domain.CreateWorkoutInput{
		Type:    domain.ModalityStrength,
		StartTS: start,
		Payload: domain.StrengthPayload{Sets: sets},
	}
}

func cardioWorkout(start time.Time, miles float64) domain.CreateWorkoutInput {
	return domain.CreateWorkoutInput{
		Type:    domain.ModalityCardio,
		StartTS: start,
		Payload: domain.CardioPayload{Session: domain.CardioSessionInput{DistanceMiles: ptr(miles), DurationSeconds: ptr(1800)}},
	}
}

var dayStart = time.Date(2026, 2, 6, 18, 50, 0, 0, time.UTC)

func utcDay(t *testing.T, date string) domain.DayRange {
	t.Helper()
	day, err := domain.ResolveDay(date, "")
	require.NoError(t, err)
	return day
}

func TestCreateWorkoutFresh(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "Bench Press", "Bench Press", "Squat"))
	require.NoError(t, err)

	assert.False(t, res.Replay)
	assert.Equal(t, domain.ModalityStrength, res.WorkoutType)
	assert.Equal(t, 3, res.StrengthSetCount)
	assert.False(t, res.CardioSessionCreated)
	assert.Equal(t, 2, store.CountExercises(1))

	detail, err := svc.GetWorkoutDetail(ctx, 1, res.WorkoutID)
	require.NoError(t, err)
	require.Len(t, detail.StrengthSets, 3)
	for i, set := range detail.StrengthSets {
		assert.Equal(t, i+1, set.SetIndex, "set_index defaults to the 1-based position")
	}
	assert.Equal(t, "Bench Press", detail.StrengthSets[0].ExerciseName)
	assert.Nil(t, detail.CardioSession)
}

func TestCreateWorkoutCardio(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, cardioWorkout(dayStart, 3.1))
	require.NoError(t, err)
	assert.True(t, res.CardioSessionCreated)
	assert.Zero(t, res.StrengthSetCount)

	sets, sessions := store.CountChildren(res.WorkoutID)
	assert.Zero(t, sets)
	assert.Equal(t, 1, sessions)
}

func TestCreateWorkoutReplay(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	in := strengthWorkout(dayStart, "Deadlift")
	in.ClientCorrelationID = ptr(uuid.NewString())

	first, err := svc.CreateWorkout(ctx, 1, in)
	require.NoError(t, err)
	require.False(t, first.Replay)

	second, err := svc.CreateWorkout(ctx, 1, in)
	require.NoError(t, err)
	assert.True(t, second.Replay)
	assert.Equal(t, first.WorkoutID, second.WorkoutID)
	assert.Zero(t, second.StrengthSetCount)
	assert.False(t, second.CardioSessionCreated)

	sets, _ := store.CountChildren(first.WorkoutID)
	assert.Equal(t, 1, sets, "a replay writes nothing")

	summaries, _, err := svc.ListWorkouts(ctx, 1, utcDay(t, "2026-02-06"), nil, 50)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestCreateWorkoutReplayIsScopedPerUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := cardioWorkout(dayStart, 2)
	in.ClientCorrelationID = ptr(uuid.NewString())

	mine, err := svc.CreateWorkout(ctx, 1, in)
	require.NoError(t, err)
	theirs, err := svc.CreateWorkout(ctx, 2, in)
	require.NoError(t, err)

	assert.False(t, theirs.Replay)
	assert.NotEqual(t, mine.WorkoutID, theirs.WorkoutID)
}

func TestCreateWorkoutDeduplicatesExerciseNames(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "  bench press "))
	require.NoError(t, err)
	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart.Add(time.Minute), "Bench Press", "BENCH PRESS"))
	require.NoError(t, err)

	assert.Equal(t, 1, store.CountExercises(1))

	detail, err := svc.GetWorkoutDetail(ctx, 1, res.WorkoutID)
	require.NoError(t, err)
	require.Len(t, detail.StrengthSets, 2)
	assert.Equal(t, detail.StrengthSets[0].ExerciseID, detail.StrengthSets[1].ExerciseID)
	assert.Equal(t, "bench press", detail.StrengthSets[0].ExerciseName, "the first spelling is canonical")

	// Names are private to each user.
	_, err = svc.CreateWorkout(ctx, 2, strengthWorkout(dayStart, "Bench Press"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.CountExercises(2))
}

func TestCreateWorkoutConcurrentNewExercise(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateWorkout(ctx, 7, strengthWorkout(dayStart.Add(time.Duration(i)*time.Second), "Lat Pulldown"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, store.CountExercises(7))
}

func TestCreateWorkoutForeignExerciseID(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "Row"))
	require.NoError(t, err)
	detail, err := svc.GetWorkoutDetail(ctx, 1, res.WorkoutID)
	require.NoError(t, err)
	foreignID := detail.StrengthSets[0].ExerciseID
	createdBefore := testutil.ToFloat64(observability.ExercisesCreated())

	in := domain.CreateWorkoutInput{
		Type:    domain.ModalityStrength,
		StartTS: dayStart,
		Payload: domain.StrengthPayload{Sets: []domain.StrengthSetInput{
			{Exercise: domain.ExerciseRef{Name: "Curl"}},
			{Exercise: domain.ExerciseRef{ID: foreignID}},
		}},
	}
	_, err = svc.CreateWorkout(ctx, 2, in)
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)

	assert.Zero(t, store.CountExercises(2), "the whole create rolls back")
	assert.Equal(t, createdBefore, testutil.ToFloat64(observability.ExercisesCreated()), "rolled back exercises are not counted")
	summaries, _, err := svc.ListWorkouts(ctx, 2, utcDay(t, "2026-02-06"), nil, 50)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestCreateWorkoutRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t)

	in := strengthWorkout(dayStart, "Squat")
	in.Type = domain.ModalityCardio
	_, err := svc.CreateWorkout(context.Background(), 1, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = cardioWorkout(dayStart, 1)
	in.Type = domain.ModalityOther
	_, err = svc.CreateWorkout(context.Background(), 1, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWorkoutsOfOtherUsersAreNotFound(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "Squat"))
	require.NoError(t, err)

	_, err = svc.GetWorkoutDetail(ctx, 2, res.WorkoutID)
	assert.ErrorIs(t, err, domain.ErrWorkoutNotFound)
	assert.ErrorIs(t, svc.DeleteWorkout(ctx, 2, res.WorkoutID), domain.ErrWorkoutNotFound)

	_, err = svc.GetWorkoutDetail(ctx, 1, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	sets, _ := store.CountChildren(res.WorkoutID)
	assert.Equal(t, 1, sets)
}

func TestDeleteWorkoutCascades(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "Squat", "Squat"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWorkout(ctx, 1, res.WorkoutID))
	sets, sessions := store.CountChildren(res.WorkoutID)
	assert.Zero(t, sets)
	assert.Zero(t, sessions)

	assert.ErrorIs(t, svc.DeleteWorkout(ctx, 1, res.WorkoutID), domain.ErrWorkoutNotFound)
	assert.Equal(t, 1, store.CountExercises(1), "exercises outlive workouts")
}

func TestListWorkoutsHonoursLocalDay(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// 19:00 on 2026-02-06 in Los Angeles is 03:00 on 2026-02-07 UTC.
	evening := time.Date(2026, 2, 7, 3, 0, 0, 0, time.UTC)
	_, err := svc.CreateWorkout(ctx, 1, cardioWorkout(evening, 2))
	require.NoError(t, err)

	la, err := domain.ResolveDay("2026-02-06", "America/Los_Angeles")
	require.NoError(t, err)
	summaries, _, err := svc.ListWorkouts(ctx, 1, la, nil, 50)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	summaries, _, err = svc.ListWorkouts(ctx, 1, utcDay(t, "2026-02-06"), nil, 50)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestListWorkoutsPaginates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateWorkout(ctx, 1, cardioWorkout(dayStart.Add(time.Duration(i)*time.Minute), 1))
		require.NoError(t, err)
	}
	day := utcDay(t, "2026-02-06")

	page, next, err := svc.ListWorkouts(ctx, 1, day, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.True(t, page[0].StartTS.After(page[1].StartTS))

	seen := len(page)
	for next != nil {
		page, next, err = svc.ListWorkouts(ctx, 1, day, next, 2)
		require.NoError(t, err)
		seen += len(page)
	}
	assert.Equal(t, 5, seen)
}

func TestListWorkoutsRejectsLimit(t *testing.T) {
	svc, _ := newService(t)
	day := utcDay(t, "2026-02-06")

	for _, limit := range []int{0, -1, domain.MaxListLimit + 1} {
		_, _, err := svc.ListWorkouts(context.Background(), 1, day, nil, limit)
		assert.ErrorIs(t, err, domain.ErrValidation, "limit %d", limit)
	}
}

func TestGetDayDashboard(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.CreateWorkout(ctx, 1, strengthWorkout(dayStart, "Bench Press", "Squat"))
	require.NoError(t, err)
	_, err = svc.CreateWorkout(ctx, 1, cardioWorkout(dayStart.Add(time.Hour), 3.1))
	require.NoError(t, err)

	detail, err := svc.GetWorkoutDetail(ctx, 1, res.WorkoutID)
	require.NoError(t, err)
	chest, ok := store.MuscleGroupByName("Chest")
	require.True(t, ok)
	triceps, ok := store.MuscleGroupByName("Triceps")
	require.True(t, ok)
	benchID := detail.StrengthSets[0].ExerciseID
	require.NoError(t, store.LinkMuscleGroup(benchID, chest.ID, true))
	require.NoError(t, store.LinkMuscleGroup(benchID, triceps.ID, false))

	dash, err := svc.GetDayDashboard(ctx, 1, utcDay(t, "2026-02-06"), 50, 10)
	require.NoError(t, err)
	require.Len(t, dash.Workouts, 2)
	assert.Equal(t, domain.ModalityCardio, dash.Workouts[0].Type, "newest first")
	require.NotNil(t, dash.Workouts[0].CardioSession)

	strength := dash.Workouts[1]
	require.Len(t, strength.StrengthSets, 2)
	assert.Equal(t, []string{"Chest"}, strength.StrengthSets[0].MuscleGroups)
	assert.Equal(t, []string{}, strength.StrengthSets[1].MuscleGroups)

	tel := dash.Telemetry
	assert.InDelta(t, 1000.0, tel.TotalTrainingLoad, 1e-9)
	require.NotNil(t, tel.BestSetExerciseName)
	assert.Equal(t, "Bench Press", *tel.BestSetExerciseName)
	assert.Equal(t, []domain.MuscleGroupLoad{{MuscleGroup: "Chest", Load: 500}}, tel.MuscleGroupTrainingLoad)
	assert.InDelta(t, 3.1, tel.CardioTotals.TotalDistanceMiles, 1e-9)
	require.NotNil(t, tel.CardioTotals.TotalDurationSeconds)
	assert.Equal(t, 1800, *tel.CardioTotals.TotalDurationSeconds)
}

func TestGetDayDashboardEmptyDay(t *testing.T) {
	svc, _ := newService(t)

	dash, err := svc.GetDayDashboard(context.Background(), 1, utcDay(t, "2099-01-01"), 50, 10)
	require.NoError(t, err)
	assert.Empty(t, dash.Workouts)
	assert.Zero(t, dash.Telemetry.TotalTrainingLoad)
	assert.Nil(t, dash.Telemetry.BestSetLoad)
	assert.Nil(t, dash.Telemetry.CardioTotals.TotalDurationSeconds)
}

func TestGetDayDashboardRejectsBounds(t *testing.T) {
	svc, _ := newService(t)
	day := utcDay(t, "2026-02-06")

	_, err := svc.GetDayDashboard(context.Background(), 1, day, 0, 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.GetDayDashboard(context.Background(), 1, day, 50, domain.MaxDashboardTopK+1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateWorkoutCountsExercisesAfterCommit(t *testing.T) {
	svc, store := newService(t)
	before := testutil.ToFloat64(observability.ExercisesCreated())

	_, err := svc.CreateWorkout(context.Background(), 3, strengthWorkout(dayStart, "Squat", "squat", "Lunge"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.CountExercises(3))
	assert.Equal(t, before+2, testutil.ToFloat64(observability.ExercisesCreated()))
}
