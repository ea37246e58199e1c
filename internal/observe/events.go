package observe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// requestIDKey is the context key for the per-request correlation id.
type requestIDKey struct{}

// WithRequestID returns a context carrying the given request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or the empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRequestID generates a fresh request id.
func NewRequestID() string {
	return uuid.NewString()
}

// Event is one structured lifecycle event, e.g. an AI call starting or a
// conversation turn completing.
type Event struct {
	Name      string         `json:"event"`
	Time      time.Time      `json:"dt"`
	RequestID string         `json:"request_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Shipper forwards events to an external log sink. Enqueue must never block;
// it reports whether the event was accepted.
type Shipper interface {
	Enqueue(ev Event) bool
}

// Emitter publishes lifecycle events to the local structured log and, when a
// shipper is configured, to the external sink. Emission is best-effort: a
// full shipper queue drops the event and bumps a counter, it never slows the
// caller down.
type Emitter struct {
	shipper Shipper
	metrics *Metrics
}

// NewEmitter creates an Emitter. shipper may be nil to log locally only.
func NewEmitter(shipper Shipper, metrics *Metrics) *Emitter {
	return &Emitter{shipper: shipper, metrics: metrics}
}

// Emit logs the named event with the given fields and forwards it to the
// shipper. The request id is taken from ctx.
func (e *Emitter) Emit(ctx context.Context, name string, fields map[string]any) {
	ev := Event{
		Name:      name,
		Time:      time.Now().UTC(),
		RequestID: RequestID(ctx),
		Fields:    fields,
	}

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if ev.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", ev.RequestID))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	Logger(ctx).LogAttrs(ctx, slog.LevelInfo, name, attrs...)

	if e.shipper == nil {
		return
	}
	if !e.shipper.Enqueue(ev) && e.metrics != nil {
		e.metrics.DroppedLogEvents.Add(ctx, 1)
	}
}
