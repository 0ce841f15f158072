package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/pkg/config"
)

type fakeAppender struct {
	stream string
	values map[string]any
	err    error
	calls  int
}

func (f *fakeAppender) StreamAppend(_ context.Context, stream string, _ int64, values map[string]any) (string, error) {
	f.calls++
	f.stream = stream
	f.values = values
	return "1-0", f.err
}

func TestSinkRecordsEvent(t *testing.T) {
	appender := &fakeAppender{}
	sink := NewSink(appender, config.AuditConfig{Stream: "hw:audit:test"}, nil)

	event := Event{
		Action:   "inventory.item.adjusted",
		OrgID:    uuid.New(),
		ActorID:  uuid.New(),
		EntityID: uuid.New(),
		At:       time.Now().UTC(),
	}
	sink.Record(context.Background(), event)

	if appender.calls != 1 {
		t.Fatalf("expected one append, got %d", appender.calls)
	}
	if appender.stream != "hw:audit:test" {
		t.Fatalf("unexpected stream %q", appender.stream)
	}
	if appender.values["action"] != "inventory.item.adjusted" {
		t.Fatalf("unexpected action %v", appender.values["action"])
	}
}

func TestSinkSwallowsAppendErrors(t *testing.T) {
	appender := &fakeAppender{err: errors.New("stream unavailable")}
	sink := NewSink(appender, config.AuditConfig{Stream: "hw:audit:test"}, nil)

	// Must not panic or surface the error to the caller.
	sink.Record(context.Background(), Event{Action: "inventory.checkout.created"})
	if appender.calls != 1 {
		t.Fatalf("expected append attempt, got %d", appender.calls)
	}
}

func TestSinkNilAppenderDropsSilently(t *testing.T) {
	sink := NewSink(nil, config.AuditConfig{}, nil)
	sink.Record(context.Background(), Event{Action: "noop"})
}
