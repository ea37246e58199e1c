package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/audio"
	"github.com/encuentro-app/encuentro/internal/ledger"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/pkg/provider/tts"
)

// TTS list price per 1M input characters.
const synthesisCostPer1MChars = 15.0

// SynthesizeRequest is one text-to-speech call.
type SynthesizeRequest struct {
	Text string

	// Voice selects the provider voice; empty uses the adapter default.
	Voice string

	// Format is the output container format; empty uses the adapter default.
	Format string

	UserID *uuid.UUID
}

// SynthesizeResult is the outcome of a successful synthesis call. The audio
// is stored and referenced by URL, never returned inline to the ledger.
type SynthesizeResult struct {
	Ref           *audio.Ref
	LatencyMs     int
	EstimatedCost float64
}

// Synthesis is the ledgered text-to-speech adapter. Synthesized audio is
// written to the injected store and the ledger records its location.
type Synthesis struct {
	provider tts.Synthesizer
	store    audio.Store
	ledger   ledger.Ledger
	emitter  *observe.Emitter
	metrics  *observe.Metrics
	cfg      Config
}

// NewSynthesis creates a Synthesis gateway.
func NewSynthesis(p tts.Synthesizer, store audio.Store, led ledger.Ledger, em *observe.Emitter, met *observe.Metrics, cfg Config) *Synthesis {
	return &Synthesis{provider: p, store: store, ledger: led, emitter: em, metrics: met, cfg: cfg.withDefaults()}
}

// Synthesize runs one synthesis call with retries. The ledger stores a hash
// and length of the input text plus the stored audio location.
func (s *Synthesis) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResult, error) {
	var result *SynthesizeResult
	err := withRetry(ctx, s.cfg.Attempts, func() error {
		res, err := s.attempt(ctx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Synthesis) attempt(ctx context.Context, req SynthesizeRequest) (*SynthesizeResult, error) {
	hash := sha256.Sum256([]byte(req.Text))

	rec := &ledger.SynthesisRecord{
		RequestID:       observe.RequestID(ctx),
		UserID:          req.UserID,
		Provider:        s.provider.Name(),
		Model:           s.provider.Model(),
		Voice:           req.Voice,
		InputTextSHA256: hex.EncodeToString(hash[:]),
		InputChars:      len([]rune(req.Text)),
		OutputFormat:    req.Format,
	}
	if err := s.ledger.BeginSynthesis(ctx, rec); err != nil {
		return nil, fmt.Errorf("gateway: begin synthesis record: %w", err)
	}

	s.emitter.Emit(ctx, "tts_start", map[string]any{
		"provider":    rec.Provider,
		"model":       rec.Model,
		"voice":       rec.Voice,
		"input_chars": rec.InputChars,
	})

	start := timeNow()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	res, callErr := s.provider.Synthesize(callCtx, tts.Request{
		Text:   req.Text,
		Voice:  req.Voice,
		Format: req.Format,
	})
	cancel()

	commitCtx := context.WithoutCancel(ctx)

	var ref *audio.Ref
	if callErr == nil {
		ref, callErr = s.store.Save(res.Audio, res.Format)
	}
	latency := latencyMS(start)

	if callErr != nil {
		fail := ledger.Failure{
			LatencyMs:    latency,
			ErrorCode:    errorCode(callErr),
			ErrorMessage: callErr.Error(),
		}
		if err := s.ledger.CommitSynthesisFailure(commitCtx, rec.ID, fail); err != nil {
			return nil, fmt.Errorf("gateway: commit synthesis failure: %w", err)
		}
		s.metrics.RecordProviderRequest(ctx, rec.Provider, "tts", "error")
		s.metrics.RecordProviderError(ctx, rec.Provider, "tts")
		s.emitter.Emit(ctx, "tts_failure", map[string]any{
			"provider":      rec.Provider,
			"model":         rec.Model,
			"latency_ms":    latency,
			"error_code":    fail.ErrorCode,
			"error_message": fail.ErrorMessage,
		})
		return nil, &ProviderError{Capability: "tts", Provider: rec.Provider, Err: callErr}
	}

	cost := synthesisCost(rec.InputChars)
	out := ledger.SynthesisSuccess{
		AudioBytes:    ref.Bytes,
		AudioPath:     ref.Path,
		LatencyMs:     latency,
		EstimatedCost: cost,
	}
	if err := s.ledger.CommitSynthesisSuccess(commitCtx, rec.ID, out); err != nil {
		return nil, fmt.Errorf("gateway: commit synthesis success: %w", err)
	}

	s.metrics.TTSDuration.Record(ctx, float64(latency)/1000)
	s.metrics.RecordProviderRequest(ctx, rec.Provider, "tts", "ok")
	s.emitter.Emit(ctx, "tts_success", map[string]any{
		"provider":       rec.Provider,
		"model":          rec.Model,
		"latency_ms":     latency,
		"audio_bytes":    ref.Bytes,
		"estimated_cost": cost,
	})

	return &SynthesizeResult{Ref: ref, LatencyMs: latency, EstimatedCost: cost}, nil
}

func synthesisCost(chars int) float64 {
	return float64(chars) / 1e6 * synthesisCostPer1MChars
}
