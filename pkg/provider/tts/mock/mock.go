// Package mock provides a test double for the tts.Synthesizer interface.
package mock

import (
	"context"
	"sync"

	"github.com/encuentro-app/encuentro/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Req is the Request passed to Synthesize.
	Req tts.Request
}

// Synthesizer is a mock implementation of tts.Synthesizer.
// Set SynthesizeErr to inject errors.
type Synthesizer struct {
	mu sync.Mutex

	// SynthesizeResult is returned by Synthesize. May be nil (returns nil, nil).
	SynthesizeResult *tts.Result

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeFunc, if non-nil, overrides the fields above.
	SynthesizeFunc func(ctx context.Context, req tts.Request) (*tts.Result, error)

	// SynthesizeCalls records every call to Synthesize.
	SynthesizeCalls []SynthesizeCall

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string
}

// Synthesize records the call and returns the configured result.
func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	s.mu.Lock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Req: req})
	fn := s.SynthesizeFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if s.SynthesizeErr != nil {
		return nil, s.SynthesizeErr
	}
	return s.SynthesizeResult, nil
}

// Name returns ProviderName or "mock".
func (s *Synthesizer) Name() string {
	if s.ProviderName != "" {
		return s.ProviderName
	}
	return "mock"
}

// Model returns ModelName or "mock-model".
func (s *Synthesizer) Model() string {
	if s.ModelName != "" {
		return s.ModelName
	}
	return "mock-model"
}
