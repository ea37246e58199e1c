package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/ledger"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/pkg/provider/stt"
)

// Whisper list price per minute of audio. Duration is not decoded from the
// upload, so the estimate assumes one minute per MiB.
const transcriptionCostPerMinute = 0.006

// TranscribeRequest is one speech-to-text call.
type TranscribeRequest struct {
	Audio    []byte
	Filename string

	// Prompt optionally biases the transcription vocabulary, e.g. with the
	// conversation's target words.
	Prompt string

	// Language is an ISO 639-1 hint, e.g. "es".
	Language string

	UserID *uuid.UUID
}

// TranscribeResult is the outcome of a successful transcription call.
type TranscribeResult struct {
	Text          string
	LatencyMs     int
	EstimatedCost float64
}

// Transcription is the ledgered speech-to-text adapter.
type Transcription struct {
	provider stt.Transcriber
	ledger   ledger.Ledger
	emitter  *observe.Emitter
	metrics  *observe.Metrics
	cfg      Config
}

// NewTranscription creates a Transcription gateway.
func NewTranscription(p stt.Transcriber, led ledger.Ledger, em *observe.Emitter, met *observe.Metrics, cfg Config) *Transcription {
	return &Transcription{provider: p, ledger: led, emitter: em, metrics: met, cfg: cfg.withDefaults()}
}

// Transcribe runs one transcription call with retries. The ledger stores a
// content hash, size and format of the audio, never the raw bytes.
func (t *Transcription) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	var result *TranscribeResult
	err := withRetry(ctx, t.cfg.Attempts, func() error {
		res, err := t.attempt(ctx, req)
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

func (t *Transcription) attempt(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	hash := sha256.Sum256(req.Audio)

	rec := &ledger.TranscriptionRecord{
		RequestID:   observe.RequestID(ctx),
		UserID:      req.UserID,
		Provider:    t.provider.Name(),
		Model:       t.provider.Model(),
		AudioSHA256: hex.EncodeToString(hash[:]),
		AudioBytes:  len(req.Audio),
		AudioFormat: formatFromFilename(req.Filename),
		Language:    req.Language,
	}
	if err := t.ledger.BeginTranscription(ctx, rec); err != nil {
		return nil, fmt.Errorf("gateway: begin transcription record: %w", err)
	}

	t.emitter.Emit(ctx, "stt_start", map[string]any{
		"provider":     rec.Provider,
		"model":        rec.Model,
		"audio_bytes":  rec.AudioBytes,
		"audio_format": rec.AudioFormat,
		"language":     rec.Language,
	})

	start := timeNow()
	callCtx, cancel := context.WithTimeout(ctx, t.cfg.CallTimeout)
	res, callErr := t.provider.Transcribe(callCtx, stt.Request{
		Audio:    req.Audio,
		Filename: req.Filename,
		Prompt:   req.Prompt,
		Language: req.Language,
	})
	cancel()
	latency := latencyMS(start)

	commitCtx := context.WithoutCancel(ctx)

	if callErr != nil {
		fail := ledger.Failure{
			LatencyMs:    latency,
			ErrorCode:    errorCode(callErr),
			ErrorMessage: callErr.Error(),
		}
		if err := t.ledger.CommitTranscriptionFailure(commitCtx, rec.ID, fail); err != nil {
			return nil, fmt.Errorf("gateway: commit transcription failure: %w", err)
		}
		t.metrics.RecordProviderRequest(ctx, rec.Provider, "stt", "error")
		t.metrics.RecordProviderError(ctx, rec.Provider, "stt")
		t.emitter.Emit(ctx, "stt_failure", map[string]any{
			"provider":      rec.Provider,
			"model":         rec.Model,
			"latency_ms":    latency,
			"error_code":    fail.ErrorCode,
			"error_message": fail.ErrorMessage,
		})
		return nil, &ProviderError{Capability: "stt", Provider: rec.Provider, Err: callErr}
	}

	cost := transcriptionCost(len(req.Audio))
	out := ledger.TranscriptionSuccess{
		Transcript:    res.Text,
		LatencyMs:     latency,
		EstimatedCost: cost,
	}
	if err := t.ledger.CommitTranscriptionSuccess(commitCtx, rec.ID, out); err != nil {
		return nil, fmt.Errorf("gateway: commit transcription success: %w", err)
	}

	t.metrics.STTDuration.Record(ctx, float64(latency)/1000)
	t.metrics.RecordProviderRequest(ctx, rec.Provider, "stt", "ok")
	t.emitter.Emit(ctx, "stt_success", map[string]any{
		"provider":       rec.Provider,
		"model":          rec.Model,
		"latency_ms":     latency,
		"output_chars":   len(res.Text),
		"estimated_cost": cost,
	})

	return &TranscribeResult{Text: res.Text, LatencyMs: latency, EstimatedCost: cost}, nil
}

// formatFromFilename extracts the audio format from the upload filename.
func formatFromFilename(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		return strings.ToLower(name[i+1:])
	}
	return "mp3"
}

func transcriptionCost(audioBytes int) float64 {
	minutes := float64(audioBytes) / (1024 * 1024)
	return minutes * transcriptionCostPerMinute
}
