// Package analytics records assignment events reported by the assigner.
package analytics

import (
	"context"
	"log/slog"
	"time"
)

// Recorder persists one analytics event.
type Recorder interface {
	RecordEvent(ctx context.Context, category, action, label, visitorID string) error
}

const recordTimeout = 2 * time.Second

// EventSink is an assigner.AnalyticsSink bound to one visitor. Failures are
// logged and swallowed.
type EventSink struct {
	ctx       context.Context
	recorder  Recorder
	visitorID string
	logger    *slog.Logger
}

func NewEventSink(ctx context.Context, recorder Recorder, visitorID string, logger *slog.Logger) *EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSink{ctx: ctx, recorder: recorder, visitorID: visitorID, logger: logger}
}

func (s *EventSink) Report(category, action, label string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.RecordEvent(ctx, category, action, label, s.visitorID); err != nil {
		s.logger.Warn("failed to record analytics event",
			"category", category, "action", action, "label", label, "error", err)
		return
	}
	s.logger.Debug("analytics event recorded", "action", action, "label", label, "visitor", s.visitorID)
}
