// Package mock provides a test double for the stt.Transcriber interface.
package mock

import (
	"context"
	"sync"

	"github.com/encuentro-app/encuentro/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the Request passed to Transcribe.
	Req stt.Request
}

// Transcriber is a mock implementation of stt.Transcriber.
// Set TranscribeErr to inject errors.
type Transcriber struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe. May be nil (returns nil, nil).
	TranscribeResult *stt.Result

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeFunc, if non-nil, overrides the fields above.
	TranscribeFunc func(ctx context.Context, req stt.Request) (*stt.Result, error)

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string
}

// Transcribe records the call and returns the configured result.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	t.mu.Lock()
	t.TranscribeCalls = append(t.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})
	fn := t.TranscribeFunc
	t.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if t.TranscribeErr != nil {
		return nil, t.TranscribeErr
	}
	return t.TranscribeResult, nil
}

// Name returns ProviderName or "mock".
func (t *Transcriber) Name() string {
	if t.ProviderName != "" {
		return t.ProviderName
	}
	return "mock"
}

// Model returns ModelName or "mock-model".
func (t *Transcriber) Model() string {
	if t.ModelName != "" {
		return t.ModelName
	}
	return "mock-model"
}
