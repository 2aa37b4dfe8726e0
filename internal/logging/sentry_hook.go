package logging

import (
	"errors"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// SentryHook forwards logrus entries at the configured levels to Sentry.
type SentryHook struct {
	levels []log.Level
}

// NewSentryHook builds a hook firing on the given levels.
func NewSentryHook(levels []log.Level) *SentryHook {
	return &SentryHook{levels: levels}
}

// Levels implements log.Hook.
func (h *SentryHook) Levels() []log.Level {
	return h.levels
}

// Fire implements log.Hook.
func (h *SentryHook) Fire(entry *log.Entry) error {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(entry.Level))
		for key, value := range entry.Data {
			if key == log.ErrorKey {
				continue
			}
			scope.SetExtra(key, value)
		}
		if requestID, ok := entry.Data[FieldRequestID].(string); ok {
			scope.SetTag(FieldRequestID, requestID)
		}
	})

	if err, ok := entry.Data[log.ErrorKey].(error); ok && err != nil {
		hub.CaptureException(err)
		return nil
	}
	hub.CaptureException(errors.New(entry.Message))
	return nil
}

func sentryLevel(level log.Level) sentry.Level {
	switch level {
	case log.PanicLevel, log.FatalLevel:
		return sentry.LevelFatal
	case log.ErrorLevel:
		return sentry.LevelError
	case log.WarnLevel:
		return sentry.LevelWarning
	case log.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
