package logging

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// FieldRequestID is the log field carrying the request correlation id.
const FieldRequestID = "request_id"

type contextKey string

const requestIDKey contextKey = "athos-request-id"

// WithRequestID stores the request id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// FromContext returns an entry tagged with the request id, when one is present.
func FromContext(ctx context.Context) *log.Entry {
	entry := log.NewEntry(log.StandardLogger())
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField(FieldRequestID, requestID)
	}
	return entry
}
