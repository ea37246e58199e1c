package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ProviderError wraps a failed AI provider call after retries were exhausted
// or the error was classified as permanent.
type ProviderError struct {
	// Capability is "llm", "stt" or "tts".
	Capability string

	// Provider is the provider name, e.g. "openai".
	Provider string

	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gateway: %s call to %s failed: %v", e.Capability, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedOutputError signals that the provider call itself succeeded but
// the structured payload could not be decoded. The call is already committed
// as successful in the ledger, with the raw payload recorded.
type MalformedOutputError struct {
	// Raw is the undecodable provider output.
	Raw string

	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("gateway: malformed structured output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// transient reports whether the error is worth retrying: rate limits, server
// errors, network failures and per-call timeouts. Cancellation of the caller's
// context is never retried.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	s := err.Error()
	for _, marker := range []string{
		"429", "500", "502", "503", "504",
		"connection refused", "connection reset", "i/o timeout",
		"unexpected EOF",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// errorCode maps an error to the short code recorded in the ledger.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case strings.Contains(err.Error(), "429"):
		return "rate_limited"
	case transient(err):
		return "transient_provider_error"
	default:
		return "provider_error"
	}
}
