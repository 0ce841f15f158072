package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

// Event is one fire-and-forget audit record.
type Event struct {
	Action   string          `json:"action"`
	OrgID    uuid.UUID       `json:"org_id"`
	ActorID  uuid.UUID       `json:"actor_id"`
	EntityID uuid.UUID       `json:"entity_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// StreamAppender is the slice of the redis client the sink needs.
type StreamAppender interface {
	StreamAppend(ctx context.Context, stream string, maxLen int64, values map[string]any) (string, error)
}

// Sink records audit events on a best-effort basis. Delivery failures are
// logged and swallowed; they never fail the triggering business operation.
type Sink struct {
	appender StreamAppender
	cfg      config.AuditConfig
	logg     *logger.Logger
}

// NewSink builds a sink writing to the configured redis stream. A nil
// appender yields a sink that drops every event, which keeps callers simple
// in tests and workers that do not audit.
func NewSink(appender StreamAppender, cfg config.AuditConfig, logg *logger.Logger) *Sink {
	return &Sink{appender: appender, cfg: cfg, logg: logg}
}

// Record appends the event to the audit stream. Always returns to the caller
// without error.
func (s *Sink) Record(ctx context.Context, event Event) {
	if s == nil || s.appender == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	values := map[string]any{
		"action":    event.Action,
		"org_id":    event.OrgID.String(),
		"actor_id":  event.ActorID.String(),
		"entity_id": event.EntityID.String(),
		"at":        event.At.Format(time.RFC3339Nano),
	}
	if len(event.Payload) > 0 {
		values["payload"] = string(event.Payload)
	}

	if _, err := s.appender.StreamAppend(ctx, s.cfg.Stream, s.cfg.MaxStream, values); err != nil {
		if s.logg != nil {
			fields := map[string]any{"action": event.Action, "entity_id": event.EntityID.String()}
			s.logg.Error(s.logg.WithFields(ctx, fields), "audit.write_failed", err)
		}
	}
}
