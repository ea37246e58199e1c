// Package tts defines the Synthesizer interface for text-to-speech backends.
//
// Replies in this product are short (coaching turns of a sentence or two),
// so synthesis is a single blocking call returning the complete encoded audio
// rather than a PCM stream. Persisting the audio and serving it to clients is
// the caller's concern.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Request carries one synthesis call.
type Request struct {
	// Text is the reply to synthesize.
	Text string

	// Voice is the provider-specific voice identifier (e.g., "alloy").
	Voice string

	// Format is the requested output container (e.g., "mp3"). Empty selects
	// the provider default.
	Format string
}

// Result is the synthesized audio.
type Result struct {
	// Audio is the complete encoded audio.
	Audio []byte

	// Format is the container format of Audio (e.g., "mp3").
	Format string
}

// Synthesizer is the abstraction over any text-to-speech backend.
type Synthesizer interface {
	// Synthesize submits the text and waits for the full audio.
	Synthesize(ctx context.Context, req Request) (*Result, error)

	// Name identifies the backing provider (e.g., "openai") for audit records.
	Name() string

	// Model identifies the configured model (e.g., "tts-1").
	Model() string
}
