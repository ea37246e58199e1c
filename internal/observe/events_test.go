package observe

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

// recordingShipper records enqueued events and can simulate a full queue.
type recordingShipper struct {
	events []Event
	full   bool
}

func (s *recordingShipper) Enqueue(ev Event) bool {
	if s.full {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(background) = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("RequestID = %q, want %q", got, "req-123")
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		id := NewRequestID()
		if id == "" {
			t.Fatal("empty request id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestEmitter_ForwardsToShipper(t *testing.T) {
	shipper := &recordingShipper{}
	em := NewEmitter(shipper, nil)

	ctx := WithRequestID(context.Background(), "req-42")
	em.Emit(ctx, "llm_start", map[string]any{"model": "gpt-4o-mini"})

	if len(shipper.events) != 1 {
		t.Fatalf("shipped events = %d, want 1", len(shipper.events))
	}
	ev := shipper.events[0]
	if ev.Name != "llm_start" {
		t.Errorf("event name = %q, want %q", ev.Name, "llm_start")
	}
	if ev.RequestID != "req-42" {
		t.Errorf("event request id = %q, want %q", ev.RequestID, "req-42")
	}
	if ev.Fields["model"] != "gpt-4o-mini" {
		t.Errorf("event field model = %v, want gpt-4o-mini", ev.Fields["model"])
	}
	if ev.Time.IsZero() {
		t.Error("event time not set")
	}
}

func TestEmitter_LogsLocally(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	em := NewEmitter(nil, nil)
	ctx := WithRequestID(context.Background(), "req-log")
	em.Emit(ctx, "stt_success", map[string]any{"latency_ms": 120})

	logged := buf.String()
	if !bytes.Contains([]byte(logged), []byte("stt_success")) {
		t.Errorf("log output missing event name, got: %s", logged)
	}
	if !bytes.Contains([]byte(logged), []byte("req-log")) {
		t.Errorf("log output missing request id, got: %s", logged)
	}
}

func TestEmitter_FullQueueCountsDrop(t *testing.T) {
	m, reader := newTestMetrics(t)
	shipper := &recordingShipper{full: true}
	em := NewEmitter(shipper, m)

	em.Emit(context.Background(), "tts_start", nil)

	rm := collect(t, reader)
	met := findMetric(rm, "encuentro.log.dropped_events")
	if met == nil {
		t.Fatal("dropped events metric not found")
	}
}

func TestEmitter_NilShipperDoesNotPanic(t *testing.T) {
	em := NewEmitter(nil, nil)
	em.Emit(context.Background(), "turn_complete", map[string]any{"modality": "typed"})
}
