// Package server is the HTTP boundary of the Encuentro backend. It exposes
// the conversation operations over gin routes, maps orchestrator errors to
// status codes, and serves the synthesized audio files and the Prometheus
// metrics endpoint.
//
// Authentication happens upstream; handlers trust the X-User-ID header.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/encuentro-app/encuentro/internal/encounter"
	"github.com/encuentro-app/encuentro/internal/health"
	"github.com/encuentro-app/encuentro/internal/observe"
)

// Config holds HTTP boundary settings.
type Config struct {
	// AudioDir, when non-empty, is served under /audio so clients can fetch
	// synthesized replies by the URL returned from a voice turn.
	AudioDir string

	// Checkers are evaluated by the /readyz readiness probe.
	Checkers []health.Checker
}

// Server wires the conversation service into HTTP routes.
type Server struct {
	svc     *encounter.Service
	metrics *observe.Metrics
	cfg     Config
}

// New creates a Server.
func New(svc *encounter.Service, metrics *observe.Metrics, cfg Config) *Server {
	return &Server{svc: svc, metrics: metrics, cfg: cfg}
}

// Handler returns the full HTTP handler: gin routes wrapped in the
// observability middleware (request ids, tracing, request metrics).
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	probes := health.New(s.cfg.Checkers...)
	r.GET("/healthz", gin.WrapF(probes.Healthz))
	r.GET("/readyz", gin.WrapF(probes.Readyz))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.cfg.AudioDir != "" {
		r.Static("/audio", s.cfg.AudioDir)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/conversations", s.startConversation)
		v1.POST("/conversations/:id/messages", s.typedTurn)
		v1.POST("/conversations/:id/reply", s.coachReply)
		v1.POST("/conversations/:id/voice-turn", s.voiceTurn)
		v1.GET("/conversations/:id/missing-words", s.missingWords)
	}

	return observe.Middleware(s.metrics)(r)
}
