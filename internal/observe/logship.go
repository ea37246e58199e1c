package observe

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// defaultQueueSize bounds the shipper queue. Events past this limit are
// dropped rather than applying backpressure to the request path.
const defaultQueueSize = 1024

// LogShipper forwards lifecycle events to an HTTP log sink (e.g. Better
// Stack) from a background worker. Enqueue never blocks; when the queue is
// full the newest event is dropped and counted.
type LogShipper struct {
	client   *resty.Client
	endpoint string
	queue    chan Event
	dropped  atomic.Int64
}

// Compile-time interface check.
var _ Shipper = (*LogShipper)(nil)

// LogShipperConfig configures a [LogShipper].
type LogShipperConfig struct {
	// Endpoint is the full ingest URL of the log sink.
	Endpoint string

	// Token is the bearer token sent with each request.
	Token string

	// QueueSize bounds the in-flight event queue. Default: 1024.
	QueueSize int

	// Timeout bounds each ship request. Default: 10s.
	Timeout time.Duration
}

// NewLogShipper creates a LogShipper. Call [LogShipper.Run] in a goroutine to
// start shipping.
func NewLogShipper(cfg LogShipperConfig) *LogShipper {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.Token)

	return &LogShipper{
		client:   client,
		endpoint: cfg.Endpoint,
		queue:    make(chan Event, cfg.QueueSize),
	}
}

// Enqueue implements [Shipper]. It reports false when the queue is full.
func (s *LogShipper) Enqueue(ev Event) bool {
	select {
	case s.queue <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of events dropped so far.
func (s *LogShipper) Dropped() int64 {
	return s.dropped.Load()
}

// Run ships queued events until ctx is cancelled, then drains what is left in
// the queue. Ship failures are logged and the event discarded; the sink is an
// observability aid, never a dependency of the request path.
func (s *LogShipper) Run(ctx context.Context) {
	for {
		select {
		case ev := <-s.queue:
			s.ship(ctx, ev)
		case <-ctx.Done():
			s.drain()
			return
		}
	}
}

// drain ships the remaining queue with a fresh short-lived context.
func (s *LogShipper) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-s.queue:
			s.ship(ctx, ev)
		default:
			return
		}
	}
}

func (s *LogShipper) ship(ctx context.Context, ev Event) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(s.endpoint)
	if err != nil {
		slog.Debug("log ship failed", "event", ev.Name, "error", err)
		return
	}
	if resp.IsError() {
		slog.Debug("log sink rejected event", "event", ev.Name, "status", resp.StatusCode())
	}
}
