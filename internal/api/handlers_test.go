package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarushsinha/ATHOS/internal/auth"
	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
	"github.com/tarushsinha/ATHOS/internal/persistence/memory"
)

var testAuth = auth.Config{Secret: "test-secret", Issuer: "athos-test", TTL: time.Hour}

type harness struct {
	t      *testing.T
	store  *memory.Store
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewSeededStore()
	handler := NewHandler(
		domain.NewService(store),
		identity.NewService(store, auth.NewIssuer(testAuth), 4),
	)
	router := NewRouter(RouterParams{
		Handler:        handler,
		Auth:           testAuth,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &harness{t: t, store: store, router: router}
}

func (h *harness) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func (h *harness) signup() string {
	h.t.Helper()
	rr := h.do(http.MethodPost, "/v1/auth/signup", "", SignupRequest{
		Email:      gofakeit.Email(),
		Name:       gofakeit.Name(),
		Password:   "correct horse battery",
		BirthYear:  1990,
		BirthMonth: 6,
	})
	require.Equal(h.t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp TokenResponse
	decode(h.t, rr, &resp)
	require.NotEmpty(h.t, resp.AccessToken)
	return resp.AccessToken
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rr, &body)
	return body["type"]
}

func strengthBody(start time.Time, clientUUID string) map[string]any {
	body := map[string]any{
		"workout_type": "STRENGTH",
		"title":        "Push day",
		"start_ts":     start.Format(time.RFC3339),
		"strength_sets": []map[string]any{
			{"exercise_name": "Bench Press", "weight": 100, "reps": 5},
			{"exercise_name": "  bench press ", "weight": 110, "reps": 3},
		},
	}
	if clientUUID != "" {
		body["client_uuid"] = clientUUID
	}
	return body
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	email := strings.ToLower(gofakeit.Email())
	signup := SignupRequest{Email: email, Name: "Ada", Password: "correct horse battery", BirthYear: 1990, BirthMonth: 6}

	rr := h.do(http.MethodPost, "/v1/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = h.do(http.MethodPost, "/v1/auth/signup", "", signup)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", errorType(t, rr))

	rr = h.do(http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: email, Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: email, Password: "correct horse battery"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var token TokenResponse
	decode(t, rr, &token)
	assert.Equal(t, "bearer", token.TokenType)

	rr = h.do(http.MethodGet, "/v1/auth/me", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var me MeResponse
	decode(t, rr, &me)
	assert.Equal(t, email, me.Email)
	assert.Equal(t, "Ada", me.Name)
	assert.Equal(t, 1990, me.BirthYear)
}

func TestSignupValidation(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodPost, "/v1/auth/signup", "", SignupRequest{Email: "nope", Password: "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "validation_failed", errorType(t, rr))
}

func TestMeForDeletedUser(t *testing.T) {
	h := newHarness(t)
	token, err := auth.NewIssuer(testAuth).Issue(9999)
	require.NoError(t, err)

	rr := h.do(http.MethodGet, "/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/v1/workouts?date=2026-02-06", "/v1/dashboard/day?date=2026-02-06", "/v1/auth/me"} {
		rr := h.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCreateWorkoutReplay(t *testing.T) {
	h := newHarness(t)
	token := h.signup()
	clientUUID := "8f6c0c56-3a44-4de4-9f5e-2b7a1a0f2c11"
	start := time.Date(2026, time.February, 6, 18, 50, 0, 0, time.UTC)

	rr := h.do(http.MethodPost, "/v1/workouts", token, strengthBody(start, clientUUID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var first CreateWorkoutResponse
	decode(t, rr, &first)
	assert.Equal(t, "STRENGTH", first.WorkoutType)
	assert.Equal(t, 2, first.StrengthSetCount)
	assert.False(t, first.Replay)

	rr = h.do(http.MethodPost, "/v1/workouts", token, strengthBody(start, clientUUID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var second CreateWorkoutResponse
	decode(t, rr, &second)
	assert.True(t, second.Replay)
	assert.Equal(t, first.WorkoutID, second.WorkoutID)

	sets, sessions := h.store.CountChildren(first.WorkoutID)
	assert.Equal(t, 2, sets)
	assert.Zero(t, sessions)
}

func TestCreateWorkoutRejections(t *testing.T) {
	h := newHarness(t)
	token := h.signup()
	start := time.Date(2026, time.February, 6, 18, 50, 0, 0, time.UTC)

	cases := []struct {
		name   string
		body   any
		status int
		kind   string
	}{
		{name: "undecodable", body: "{not json", status: http.StatusBadRequest, kind: "invalid_request"},
		{name: "unknown type", body: map[string]any{"workout_type": "YOGA", "start_ts": start}, status: http.StatusUnprocessableEntity, kind: "validation_failed"},
		{name: "other type", body: map[string]any{
			"workout_type": "OTHER", "start_ts": start,
			"cardio_session": map[string]any{"distance_miles": 1},
		}, status: http.StatusUnprocessableEntity, kind: "validation_failed"},
		{name: "both payloads", body: map[string]any{
			"workout_type": "STRENGTH", "start_ts": start,
			"strength_sets":  []map[string]any{{"exercise_name": "Squat"}},
			"cardio_session": map[string]any{"distance_miles": 1},
		}, status: http.StatusUnprocessableEntity, kind: "validation_failed"},
		{name: "mismatched type", body: map[string]any{
			"workout_type": "CARDIO", "start_ts": start,
			"strength_sets": []map[string]any{{"exercise_name": "Squat"}},
		}, status: http.StatusUnprocessableEntity, kind: "validation_failed"},
		{name: "foreign exercise", body: map[string]any{
			"workout_type": "STRENGTH", "start_ts": start,
			"strength_sets": []map[string]any{{"exercise_id": "4b0d9a3e-8d0e-4c59-9b1f-0c8f6f2d9a10"}},
		}, status: http.StatusNotFound, kind: "not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := h.do(http.MethodPost, "/v1/workouts", token, tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, tc.kind, errorType(t, rr))
		})
	}
}

func TestWorkoutReads(t *testing.T) {
	h := newHarness(t)
	token := h.signup()
	other := h.signup()
	start := time.Date(2026, time.February, 6, 18, 50, 0, 0, time.UTC)

	rr := h.do(http.MethodPost, "/v1/workouts", token, strengthBody(start, ""))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created CreateWorkoutResponse
	decode(t, rr, &created)

	rr = h.do(http.MethodPost, "/v1/workouts", token, map[string]any{
		"workout_type":   "CARDIO",
		"start_ts":       start.Add(time.Hour).Format(time.RFC3339),
		"cardio_session": map[string]any{"distance_miles": 3.1, "duration_seconds": 1800},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	t.Run("list", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/workouts?date=2026-02-06", token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp ListWorkoutsResponse
		decode(t, rr, &resp)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "CARDIO", resp.Items[0].WorkoutType)
		assert.True(t, resp.Items[0].CardioSessionCreated)
		assert.Equal(t, 2, resp.Items[1].StrengthSetCount)
		assert.Empty(t, resp.NextCursor)
	})

	t.Run("list paginates", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/workouts?date=2026-02-06&limit=1", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var page ListWorkoutsResponse
		decode(t, rr, &page)
		require.Len(t, page.Items, 1)
		require.NotEmpty(t, page.NextCursor)

		rr = h.do(http.MethodGet, "/v1/workouts?date=2026-02-06&limit=1&cursor="+page.NextCursor, token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var next ListWorkoutsResponse
		decode(t, rr, &next)
		require.Len(t, next.Items, 1)
		assert.NotEqual(t, page.Items[0].ID, next.Items[0].ID)
	})

	t.Run("list honours client timezone", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/workouts?date=2026-02-06", token, nil, timezoneHeader, "Asia/Tokyo")
		require.Equal(t, http.StatusOK, rr.Code)
		var resp ListWorkoutsResponse
		decode(t, rr, &resp)
		assert.Empty(t, resp.Items)
	})

	t.Run("list rejects bad query", func(t *testing.T) {
		for _, path := range []string{
			"/v1/workouts",
			"/v1/workouts?date=06-02-2026",
			"/v1/workouts?date=2026-02-06&limit=abc",
			"/v1/workouts?date=2026-02-06&limit=0",
			"/v1/workouts?date=2026-02-06&cursor=!!!",
			"/v1/workouts?date=2026-02-06&cursor=" + base64.RawURLEncoding.EncodeToString([]byte("2026-02-06T18:50:00Z|not-a-uuid")),
		} {
			rr := h.do(http.MethodGet, path, token, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, path)
		}
		rr := h.do(http.MethodGet, "/v1/workouts?date=2026-02-06", token, nil, timezoneHeader, "Mars/Olympus")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("detail", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/workouts/"+created.WorkoutID, token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var detail WorkoutDetailResponse
		decode(t, rr, &detail)
		require.Len(t, detail.StrengthSets, 2)
		assert.Equal(t, 1, detail.StrengthSets[0].SetIndex)
		assert.Equal(t, detail.StrengthSets[0].ExerciseID, detail.StrengthSets[1].ExerciseID)
		assert.Equal(t, "Bench Press", detail.StrengthSets[0].ExerciseName)
		assert.Nil(t, detail.CardioSession)
		assert.Equal(t, time.UTC, detail.StartTS.Location())
	})

	t.Run("detail of another user", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/workouts/"+created.WorkoutID, other, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = h.do(http.MethodGet, "/v1/workouts/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("dashboard", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/dashboard/day?date=2026-02-06", token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp DashboardDayResponse
		decode(t, rr, &resp)
		require.Len(t, resp.Workouts, 2)
		assert.InDelta(t, 830, resp.Telemetry.TotalTrainingLoad, 1e-9)
		require.NotNil(t, resp.Telemetry.BestSetLoad)
		assert.InDelta(t, 500, *resp.Telemetry.BestSetLoad, 1e-9)
		assert.InDelta(t, 3.1, resp.Telemetry.CardioTotals.TotalDistanceMiles, 1e-9)
		require.NotNil(t, resp.Telemetry.CardioTotals.TotalDurationSeconds)
		assert.Equal(t, 1800, *resp.Telemetry.CardioTotals.TotalDurationSeconds)
		require.Len(t, resp.Telemetry.MaxWeightPerExercise, 1)
		assert.InDelta(t, 110, resp.Telemetry.MaxWeightPerExercise[0].MaxWeight, 1e-9)
	})

	t.Run("dashboard bounds", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/dashboard/day?date=2026-02-06&top_k=51", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		rr = h.do(http.MethodGet, "/v1/dashboard/day?date=2026-02-06&limit=201", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("dashboard of another user is empty", func(t *testing.T) {
		rr := h.do(http.MethodGet, "/v1/dashboard/day?date=2026-02-06", other, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp DashboardDayResponse
		decode(t, rr, &resp)
		assert.Empty(t, resp.Workouts)
		assert.Zero(t, resp.Telemetry.TotalTrainingLoad)
		assert.Nil(t, resp.Telemetry.BestSetLoad)
	})
}

func TestDeleteWorkout(t *testing.T) {
	h := newHarness(t)
	token := h.signup()
	start := time.Date(2026, time.February, 6, 18, 50, 0, 0, time.UTC)

	rr := h.do(http.MethodPost, "/v1/workouts", token, strengthBody(start, ""))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created CreateWorkoutResponse
	decode(t, rr, &created)

	path := fmt.Sprintf("/v1/workouts/%s", created.WorkoutID)
	rr = h.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = h.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	sets, _ := h.store.CountChildren(created.WorkoutID)
	assert.Zero(t, sets)
}

func TestRequireScope(t *testing.T) {
	service := domain.NewService(memory.NewSeededStore())
	handler := NewHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", bytes.NewReader([]byte(`{}`)))
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "7",
		UserID:    7,
		Scopes:    map[string]struct{}{auth.ScopeWorkoutsRead: {}},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	rr := httptest.NewRecorder()
	handler.createWorkout(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/workouts?date=2026-02-06", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
		Subject:   "7",
		UserID:    7,
		Scopes:    map[string]struct{}{auth.ScopeWorkoutsWrite: {}},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	rr = httptest.NewRecorder()
	handler.listWorkouts(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
