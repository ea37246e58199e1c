// Package stt defines the Transcriber interface for speech-to-text backends.
//
// Audio reaches the backend as a complete uploaded recording (one user turn),
// not a live stream, so the interface is a single blocking call: bytes in,
// transcript out. The recording format is inferred from the original filename
// extension by the provider.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Request carries one transcription call.
type Request struct {
	// Audio is the raw recording bytes as uploaded by the client.
	Audio []byte

	// Filename is the original upload filename; the extension selects the
	// container format (e.g., "turn.webm", "turn.mp3").
	Filename string

	// Prompt is an optional contextual hint (e.g., the target vocabulary)
	// that improves recognition of uncommon words.
	Prompt string

	// Language is an optional ISO-639-1 language hint (e.g., "es").
	Language string
}

// Result is the committed transcription.
type Result struct {
	// Text is the transcript of the full recording.
	Text string
}

// Transcriber is the abstraction over any speech-to-text backend.
type Transcriber interface {
	// Transcribe submits the recording and waits for the transcript.
	Transcribe(ctx context.Context, req Request) (*Result, error)

	// Name identifies the backing provider (e.g., "openai") for audit records.
	Name() string

	// Model identifies the configured model (e.g., "whisper-1").
	Model() string
}
