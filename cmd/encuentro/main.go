// Command encuentro is the main entry point for the Encuentro conversation
// backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/encuentro-app/encuentro/internal/audio"
	"github.com/encuentro-app/encuentro/internal/config"
	"github.com/encuentro-app/encuentro/internal/encounter"
	"github.com/encuentro-app/encuentro/internal/gateway"
	"github.com/encuentro-app/encuentro/internal/health"
	"github.com/encuentro-app/encuentro/internal/ledger"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/internal/progress"
	"github.com/encuentro-app/encuentro/internal/server"
	"github.com/encuentro-app/encuentro/internal/words"
	llmopenai "github.com/encuentro-app/encuentro/pkg/provider/llm/openai"
	sttopenai "github.com/encuentro-app/encuentro/pkg/provider/stt/openai"
	ttsopenai "github.com/encuentro-app/encuentro/pkg/provider/tts/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env for local development; real deployments set the environment.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "encuentro: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "encuentro: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Slog(),
	}))
	slog.SetDefault(logger)

	slog.Info("encuentro starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Stores ────────────────────────────────────────────────────────────────
	st, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise stores", "err", err)
		return 1
	}
	defer cleanup()

	audioStore, err := audio.NewDirStore(cfg.Audio.Dir, cfg.Audio.BaseURL)
	if err != nil {
		slog.Error("failed to initialise audio store", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	oa := cfg.Providers.OpenAI
	var llmOpts []llmopenai.Option
	if oa.BaseURL != "" {
		llmOpts = append(llmOpts, llmopenai.WithBaseURL(oa.BaseURL))
	}
	llmProvider, err := llmopenai.New(oa.APIKey, oa.ChatModel, llmOpts...)
	if err != nil {
		slog.Error("failed to create llm provider", "err", err)
		return 1
	}

	sttOpts := []sttopenai.Option{sttopenai.WithModel(oa.TranscribeModel)}
	if oa.BaseURL != "" {
		sttOpts = append(sttOpts, sttopenai.WithBaseURL(oa.BaseURL))
	}
	sttProvider, err := sttopenai.New(oa.APIKey, sttOpts...)
	if err != nil {
		slog.Error("failed to create stt provider", "err", err)
		return 1
	}

	ttsOpts := []ttsopenai.Option{ttsopenai.WithModel(oa.SpeechModel)}
	if oa.BaseURL != "" {
		ttsOpts = append(ttsOpts, ttsopenai.WithBaseURL(oa.BaseURL))
	}
	ttsProvider, err := ttsopenai.New(oa.APIKey, ttsOpts...)
	if err != nil {
		slog.Error("failed to create tts provider", "err", err)
		return 1
	}

	// ── Event emitter + optional log shipping ─────────────────────────────────
	var shipper *observe.LogShipper
	if cfg.LogShip.Endpoint != "" {
		shipper = observe.NewLogShipper(observe.LogShipperConfig{
			Endpoint:  cfg.LogShip.Endpoint,
			Token:     cfg.LogShip.Token,
			QueueSize: cfg.LogShip.QueueSize,
			Timeout:   time.Duration(cfg.LogShip.TimeoutSeconds) * time.Second,
		})
		slog.Info("log shipping enabled", "endpoint", cfg.LogShip.Endpoint)
	}
	var emitter *observe.Emitter
	if shipper != nil {
		emitter = observe.NewEmitter(shipper, metrics)
	} else {
		emitter = observe.NewEmitter(nil, metrics)
	}

	// ── Gateways + orchestrator ───────────────────────────────────────────────
	gwCfg := gateway.Config{
		Attempts:    cfg.Gateway.Attempts,
		CallTimeout: time.Duration(cfg.Gateway.CallTimeoutSeconds) * time.Second,
	}
	svc := encounter.NewService(
		st.words,
		st.progress,
		gateway.NewGeneration(llmProvider, st.ledger, emitter, metrics, gwCfg),
		gateway.NewTranscription(sttProvider, st.ledger, emitter, metrics, gwCfg),
		gateway.NewSynthesis(ttsProvider, audioStore, st.ledger, emitter, metrics, gwCfg),
		emitter, metrics,
		encounter.Config{
			Language: cfg.Encounter.Language,
			Voice:    oa.Voice,
		},
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	checkers := append([]health.Checker{health.AudioDirChecker(cfg.Audio.Dir)}, st.ready...)
	httpSrv := &http.Server{
		Addr: cfg.Server.ListenAddr,
		Handler: server.New(svc, metrics, server.Config{
			AudioDir: cfg.Audio.Dir,
			Checkers: checkers,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if shipper != nil {
		g.Go(func() error {
			shipper.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// stores bundles the three persistence surfaces behind their interfaces so
// the rest of main does not care whether Postgres is configured.
type stores struct {
	words    words.Store
	progress progress.Store
	ledger   ledger.Ledger

	// ready holds store-specific readiness checks (database ping when
	// Postgres is configured).
	ready []health.Checker
}

// buildStores connects to Postgres and runs migrations, or falls back to
// in-memory stores when no DSN is configured. The returned cleanup closes the
// pool (a no-op for the in-memory fallback).
func buildStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.Database.PostgresDSN == "" {
		slog.Warn("running on in-memory stores; data will not survive a restart")
		return &stores{
			words:    words.NewMemStore(),
			progress: progress.NewMemStore(),
			ledger:   ledger.NewMemLedger(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	wordStore := words.NewPostgresStore(pool)
	progStore := progress.NewPostgresStore(pool)
	led := ledger.NewPostgresLedger(pool)
	for _, m := range []interface {
		Migrate(context.Context) error
	}{wordStore, progStore, led} {
		if err := m.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	slog.Info("postgres connected and migrated")

	return &stores{
		words:    wordStore,
		progress: progStore,
		ledger:   led,
		ready:    []health.Checker{health.DatabaseChecker(pool)},
	}, pool.Close, nil
}
