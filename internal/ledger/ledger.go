// Package ledger provides the durable record of every outbound AI provider
// call. Each call is written twice: a pending row (success=false) BEFORE the
// provider request is issued, and exactly one update after it returns. The
// ordering is load-bearing — a crash mid-call leaves an auditable failed
// record rather than silence.
//
// The ledger is a recorder, not a resilience layer: it never retries and
// never masks errors.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GenerationRecord is one text-generation call, mirroring one row of the
// llm_requests table.
type GenerationRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time

	// RequestID is the correlation id grouping all calls of one inbound turn.
	RequestID string
	UserID    *uuid.UUID

	Provider string
	Model    string

	// MessagesJSON is the serialised instruction pair sent to the provider.
	MessagesJSON []byte

	Temperature *float64
	MaxTokens   *int

	// ResponseJSON is the serialised provider reply; nil until success.
	ResponseJSON []byte

	TokensIn      *int
	TokensOut     *int
	EstimatedCost *float64
	LatencyMs     *int

	// Success defaults to false and is flipped true only on confirmed
	// provider success.
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// TranscriptionRecord is one speech-to-text call. Only a content hash and
// size of the audio are recorded, never the raw bytes.
type TranscriptionRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time

	RequestID string
	UserID    *uuid.UUID

	Provider string
	Model    string

	AudioSHA256 string
	AudioBytes  int
	AudioFormat string
	Language    string

	TranscriptText string
	EstimatedCost  *float64
	LatencyMs      *int

	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// SynthesisRecord is one text-to-speech call. The input text is recorded as
// a hash and length.
type SynthesisRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time

	RequestID string
	UserID    *uuid.UUID

	Provider string
	Model    string
	Voice    string

	InputTextSHA256 string
	InputChars      int

	AudioBytes    int
	OutputFormat  string
	AudioPath     string
	EstimatedCost *float64
	LatencyMs     *int

	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// GenerationSuccess carries the fields written on a successful generation
// commit.
type GenerationSuccess struct {
	ResponseJSON  []byte
	TokensIn      int
	TokensOut     int
	LatencyMs     int
	EstimatedCost float64
}

// TranscriptionSuccess carries the fields written on a successful
// transcription commit.
type TranscriptionSuccess struct {
	Transcript    string
	LatencyMs     int
	EstimatedCost float64
}

// SynthesisSuccess carries the fields written on a successful synthesis
// commit.
type SynthesisSuccess struct {
	AudioBytes    int
	AudioPath     string
	LatencyMs     int
	EstimatedCost float64
}

// Failure carries the fields written on any failed commit.
type Failure struct {
	LatencyMs    int
	ErrorCode    string
	ErrorMessage string
}

// Ledger persists AI call records with two-phase writes. Begin* must
// durably insert the pending row before returning; Commit* updates that same
// row exactly once. Implementations must be safe for concurrent use.
type Ledger interface {
	// BeginGeneration inserts a pending generation row. It assigns
	// rec.ID/CreatedAt when unset and forces rec.Success to false.
	BeginGeneration(ctx context.Context, rec *GenerationRecord) error
	CommitGenerationSuccess(ctx context.Context, id uuid.UUID, out GenerationSuccess) error
	CommitGenerationFailure(ctx context.Context, id uuid.UUID, fail Failure) error

	// BeginTranscription inserts a pending transcription row.
	BeginTranscription(ctx context.Context, rec *TranscriptionRecord) error
	CommitTranscriptionSuccess(ctx context.Context, id uuid.UUID, out TranscriptionSuccess) error
	CommitTranscriptionFailure(ctx context.Context, id uuid.UUID, fail Failure) error

	// BeginSynthesis inserts a pending synthesis row.
	BeginSynthesis(ctx context.Context, rec *SynthesisRecord) error
	CommitSynthesisSuccess(ctx context.Context, id uuid.UUID, out SynthesisSuccess) error
	CommitSynthesisFailure(ctx context.Context, id uuid.UUID, fail Failure) error
}

// stamp fills id and createdAt for a new pending row.
func stamp(id *uuid.UUID, createdAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
