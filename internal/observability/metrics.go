// Package observability holds the prometheus collectors and tracing helpers.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "athos"

var (
	workoutsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workouts",
		Name:      "created_total",
		Help:      "Number of workouts committed, labeled by workout type.",
	}, []string{"workout_type"})

	idempotentReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workouts",
		Name:      "idempotent_replays_total",
		Help:      "Number of create requests answered from an existing workout with the same client_uuid.",
	})

	exercisesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "created_total",
		Help:      "Number of exercises created lazily from a strength set name.",
	})

	exerciseNameConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercises",
		Name:      "name_conflicts_total",
		Help:      "Number of concurrent exercise-name inserts absorbed by re-reading the winner.",
	})

	dashboardsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "days_served_total",
		Help:      "Number of day dashboards computed.",
	})

	workoutPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_workout_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout committed.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests, labeled by method and status.",
	}, []string{"method", "status"})

	httpRequestPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_panics_total",
		Help:      "Number of handler panics recovered.",
	})

	httpRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(
		workoutsCreated,
		idempotentReplays,
		exercisesCreated,
		exerciseNameConflicts,
		dashboardsServed,
		workoutPersistGauge,
		httpRequests,
		httpRequestPanics,
		httpRequestDuration,
	)
}

// RecordWorkoutCreated counts a committed workout and moves the persistence watermark.
func RecordWorkoutCreated(workoutType string, ts time.Time) {
	workoutsCreated.WithLabelValues(workoutType).Inc()
	if ts.IsZero() {
		return
	}
	workoutPersistGauge.Set(float64(ts.Unix()))
}

// RecordIdempotentReplay counts a replayed create.
func RecordIdempotentReplay() {
	idempotentReplays.Inc()
}

// RecordExerciseCreated counts a lazily created exercise.
func RecordExerciseCreated() {
	exercisesCreated.Inc()
}

// RecordExerciseNameConflict counts an absorbed exercise-name race.
func RecordExerciseNameConflict() {
	exerciseNameConflicts.Inc()
}

// RecordDashboardServed counts a computed day dashboard.
func RecordDashboardServed() {
	dashboardsServed.Inc()
}

// RecordHTTPRequest observes a finished request.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, statusLabel(status)).Inc()
	httpRequestDuration.Observe(elapsed.Seconds())
}

// RecordHTTPPanic counts a recovered handler panic.
func RecordHTTPPanic() {
	httpRequestPanics.Inc()
}

// HTTPPanics exposes the panic counter to tests.
func HTTPPanics() prometheus.Counter {
	return httpRequestPanics
}

// IdempotentReplays exposes the replay counter to tests.
func IdempotentReplays() prometheus.Counter {
	return idempotentReplays
}

// ExercisesCreated exposes the exercise creation counter to tests.
func ExercisesCreated() prometheus.Counter {
	return exercisesCreated
}

// ExerciseNameConflicts exposes the conflict counter to tests.
func ExerciseNameConflicts() prometheus.Counter {
	return exerciseNameConflicts
}

func statusLabel(status int) string {
	if status == 0 {
		status = 200
	}
	return strconv.Itoa(status)
}
