// Package api exposes HTTP handlers for the athos service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tarushsinha/ATHOS/internal/auth"
	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
	"github.com/tarushsinha/ATHOS/internal/logging"
	"github.com/tarushsinha/ATHOS/internal/persistence"
)

const (
	maxBodyBytes          = 1 << 20
	defaultListLimit      = 20
	defaultDashboardLimit = 50
	defaultDashboardTopK  = 10
	timezoneHeader        = "X-Client-Timezone"
)

// Handler coordinates HTTP requests with the domain and identity services.
type Handler struct {
	workouts *domain.Service
	accounts *identity.Service
}

// NewHandler builds a Handler.
func NewHandler(workouts *domain.Service, accounts *identity.Service) *Handler {
	return &Handler{workouts: workouts, accounts: accounts}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)

	r.HandleFunc("/v1/auth/signup", h.signup).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/v1/auth/login", h.login).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/v1/auth/me", h.me).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/v1/workouts", h.createWorkout).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/v1/workouts", h.listWorkouts).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/v1/workouts/{id}", h.getWorkout).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/v1/workouts/{id}", h.deleteWorkout).Methods(http.MethodDelete, http.MethodOptions)

	r.HandleFunc("/v1/dashboard/day", h.dashboardDay).Methods(http.MethodGet, http.MethodOptions)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := h.accounts.Signup(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, err := h.accounts.Login(r.Context(), identity.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}
	user, err := h.accounts.Me(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeResponse(*user))
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.workouts.CreateWorkout(r.Context(), claims.UserID, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replay {
		status = http.StatusOK
	}
	writeJSON(w, status, CreateWorkoutResponse{
		WorkoutID:            result.WorkoutID,
		WorkoutType:          string(result.WorkoutType),
		StrengthSetCount:     result.StrengthSetCount,
		CardioSessionCreated: result.CardioSessionCreated,
		Replay:               result.Replay,
	})
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	day, err := domain.ResolveDay(r.URL.Query().Get("date"), r.Header.Get(timezoneHeader))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultListLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	summaries, next, err := h.workouts.ListWorkouts(r.Context(), claims.UserID, day, cursor, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]WorkoutListItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, WorkoutListItem{
			WorkoutView:          toWorkoutView(s.Workout),
			StrengthSetCount:     s.StrengthSetCount,
			CardioSessionCreated: s.CardioSessionCreated,
		})
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}
	detail, err := h.workouts.GetWorkoutDetail(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutDetailResponse(*detail))
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}
	if err := h.workouts.DeleteWorkout(r.Context(), claims.UserID, mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboardDay(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	day, err := domain.ResolveDay(r.URL.Query().Get("date"), r.Header.Get(timezoneHeader))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultDashboardLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	topK, err := intQuery(r, "top_k", defaultDashboardTopK)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dashboard, err := h.workouts.GetDayDashboard(r.Context(), claims.UserID, day, limit, topK)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDayResponse(*dashboard))
}

// requireScope accepts write tokens wherever read is required.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if claims.HasScope(scope) || (scope == auth.ScopeWorkoutsRead && claims.HasScope(auth.ScopeWorkoutsWrite)) {
		return claims, true
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
	return nil, false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return parsed, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrExerciseNotFound):
		writeError(w, http.StatusNotFound, "not_found", "exercise not found")
	case errors.Is(err, domain.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", "workout not found")
	case errors.Is(err, identity.ErrEmailInUse):
		writeError(w, http.StatusConflict, "conflict", "email already registered")
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
	case errors.Is(err, identity.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
	default:
		logging.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
