package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/ledger"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/pkg/provider/llm"
)

// gpt-4o-mini list prices per 1M tokens.
const (
	generationInputCostPer1M  = 0.15
	generationOutputCostPer1M = 0.60
)

// GenerateRequest is one text-generation call.
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string

	// Structured asks the provider for a JSON object response.
	Structured bool

	Temperature *float64
	MaxTokens   *int

	UserID *uuid.UUID
}

// GenerateResult is the outcome of a successful generation call.
type GenerateResult struct {
	// Text is the raw model output. For structured calls decode it with
	// [DecodeStructured].
	Text string

	TokensIn      int
	TokensOut     int
	LatencyMs     int
	EstimatedCost float64
}

// Generation is the ledgered text-generation adapter.
type Generation struct {
	provider llm.Provider
	ledger   ledger.Ledger
	emitter  *observe.Emitter
	metrics  *observe.Metrics
	cfg      Config
}

// NewGeneration creates a Generation gateway.
func NewGeneration(p llm.Provider, led ledger.Ledger, em *observe.Emitter, met *observe.Metrics, cfg Config) *Generation {
	return &Generation{provider: p, ledger: led, emitter: em, metrics: met, cfg: cfg.withDefaults()}
}

// ledgerMessage is the serialised instruction shape stored in the ledger.
type ledgerMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate runs one generation call with retries. Each attempt gets its own
// ledger row and start/success|failure event pair.
func (g *Generation) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var result *GenerateResult
	err := withRetry(ctx, g.cfg.Attempts, func() error {
		res, err := g.attempt(ctx, req)
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

func (g *Generation) attempt(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	messagesJSON, err := json.Marshal([]ledgerMessage{
		{Role: "system", Content: req.SystemPrompt},
		{Role: "user", Content: req.UserPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal messages: %w", err)
	}

	rec := &ledger.GenerationRecord{
		RequestID:    observe.RequestID(ctx),
		UserID:       req.UserID,
		Provider:     g.provider.Name(),
		Model:        g.provider.Model(),
		MessagesJSON: messagesJSON,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	}
	// The pending row must be durable before the provider sees the request.
	if err := g.ledger.BeginGeneration(ctx, rec); err != nil {
		return nil, fmt.Errorf("gateway: begin generation record: %w", err)
	}

	g.emitter.Emit(ctx, "llm_start", map[string]any{
		"provider": rec.Provider,
		"model":    rec.Model,
	})

	callReq := llm.Request{
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		JSONResponse: req.Structured,
	}
	if req.Temperature != nil {
		callReq.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		callReq.MaxTokens = *req.MaxTokens
	}

	start := timeNow()
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	res, callErr := g.provider.Complete(callCtx, callReq)
	cancel()
	latency := latencyMS(start)

	// The commit must land even when the client has gone away.
	commitCtx := context.WithoutCancel(ctx)

	if callErr != nil {
		fail := ledger.Failure{
			LatencyMs:    latency,
			ErrorCode:    errorCode(callErr),
			ErrorMessage: callErr.Error(),
		}
		if err := g.ledger.CommitGenerationFailure(commitCtx, rec.ID, fail); err != nil {
			return nil, fmt.Errorf("gateway: commit generation failure: %w", err)
		}
		g.metrics.RecordProviderRequest(ctx, rec.Provider, "llm", "error")
		g.metrics.RecordProviderError(ctx, rec.Provider, "llm")
		g.emitter.Emit(ctx, "llm_failure", map[string]any{
			"provider":      rec.Provider,
			"model":         rec.Model,
			"latency_ms":    latency,
			"error_code":    fail.ErrorCode,
			"error_message": fail.ErrorMessage,
		})
		return nil, &ProviderError{Capability: "llm", Provider: rec.Provider, Err: callErr}
	}

	responseJSON, err := json.Marshal(struct {
		Text string `json:"text"`
	}{res.Content})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal response: %w", err)
	}
	cost := generationCost(res.Usage.PromptTokens, res.Usage.CompletionTokens)

	out := ledger.GenerationSuccess{
		ResponseJSON:  responseJSON,
		TokensIn:      res.Usage.PromptTokens,
		TokensOut:     res.Usage.CompletionTokens,
		LatencyMs:     latency,
		EstimatedCost: cost,
	}
	if err := g.ledger.CommitGenerationSuccess(commitCtx, rec.ID, out); err != nil {
		return nil, fmt.Errorf("gateway: commit generation success: %w", err)
	}

	g.metrics.LLMDuration.Record(ctx, float64(latency)/1000)
	g.metrics.RecordProviderRequest(ctx, rec.Provider, "llm", "ok")
	g.emitter.Emit(ctx, "llm_success", map[string]any{
		"provider":       rec.Provider,
		"model":          rec.Model,
		"latency_ms":     latency,
		"tokens_in":      out.TokensIn,
		"tokens_out":     out.TokensOut,
		"estimated_cost": cost,
	})

	return &GenerateResult{
		Text:          res.Content,
		TokensIn:      out.TokensIn,
		TokensOut:     out.TokensOut,
		LatencyMs:     latency,
		EstimatedCost: cost,
	}, nil
}

// DecodeStructured decodes a structured generation payload into v. The call
// is already committed successful in the ledger at this point, so a decode
// failure is surfaced as [MalformedOutputError] without touching the row.
func DecodeStructured(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	return nil
}

func generationCost(tokensIn, tokensOut int) float64 {
	return float64(tokensIn)/1e6*generationInputCostPer1M +
		float64(tokensOut)/1e6*generationOutputCostPer1M
}
