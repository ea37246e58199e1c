package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemLedger is an in-memory [Ledger] for tests and local development.
// Safe for concurrent use.
type MemLedger struct {
	mu             sync.RWMutex
	generations    map[uuid.UUID]*GenerationRecord
	transcriptions map[uuid.UUID]*TranscriptionRecord
	syntheses      map[uuid.UUID]*SynthesisRecord
	order          []uuid.UUID
}

// Compile-time interface check.
var _ Ledger = (*MemLedger)(nil)

// NewMemLedger creates an empty MemLedger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		generations:    make(map[uuid.UUID]*GenerationRecord),
		transcriptions: make(map[uuid.UUID]*TranscriptionRecord),
		syntheses:      make(map[uuid.UUID]*SynthesisRecord),
	}
}

// BeginGeneration implements [Ledger].
func (l *MemLedger) BeginGeneration(_ context.Context, rec *GenerationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *rec
	l.generations[rec.ID] = &clone
	l.order = append(l.order, rec.ID)
	return nil
}

// CommitGenerationSuccess implements [Ledger].
func (l *MemLedger) CommitGenerationSuccess(_ context.Context, id uuid.UUID, out GenerationSuccess) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.generations[id]
	if !ok {
		return fmt.Errorf("ledger: commit generation: pending row %s not found", id)
	}
	rec.Success = true
	rec.ResponseJSON = out.ResponseJSON
	rec.TokensIn = &out.TokensIn
	rec.TokensOut = &out.TokensOut
	rec.LatencyMs = &out.LatencyMs
	rec.EstimatedCost = &out.EstimatedCost
	return nil
}

// CommitGenerationFailure implements [Ledger].
func (l *MemLedger) CommitGenerationFailure(_ context.Context, id uuid.UUID, fail Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.generations[id]
	if !ok {
		return fmt.Errorf("ledger: commit generation: pending row %s not found", id)
	}
	rec.Success = false
	rec.LatencyMs = &fail.LatencyMs
	rec.ErrorCode = fail.ErrorCode
	rec.ErrorMessage = fail.ErrorMessage
	return nil
}

// BeginTranscription implements [Ledger].
func (l *MemLedger) BeginTranscription(_ context.Context, rec *TranscriptionRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *rec
	l.transcriptions[rec.ID] = &clone
	l.order = append(l.order, rec.ID)
	return nil
}

// CommitTranscriptionSuccess implements [Ledger].
func (l *MemLedger) CommitTranscriptionSuccess(_ context.Context, id uuid.UUID, out TranscriptionSuccess) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.transcriptions[id]
	if !ok {
		return fmt.Errorf("ledger: commit transcription: pending row %s not found", id)
	}
	rec.Success = true
	rec.TranscriptText = out.Transcript
	rec.LatencyMs = &out.LatencyMs
	rec.EstimatedCost = &out.EstimatedCost
	return nil
}

// CommitTranscriptionFailure implements [Ledger].
func (l *MemLedger) CommitTranscriptionFailure(_ context.Context, id uuid.UUID, fail Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.transcriptions[id]
	if !ok {
		return fmt.Errorf("ledger: commit transcription: pending row %s not found", id)
	}
	rec.Success = false
	rec.LatencyMs = &fail.LatencyMs
	rec.ErrorCode = fail.ErrorCode
	rec.ErrorMessage = fail.ErrorMessage
	return nil
}

// BeginSynthesis implements [Ledger].
func (l *MemLedger) BeginSynthesis(_ context.Context, rec *SynthesisRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *rec
	l.syntheses[rec.ID] = &clone
	l.order = append(l.order, rec.ID)
	return nil
}

// CommitSynthesisSuccess implements [Ledger].
func (l *MemLedger) CommitSynthesisSuccess(_ context.Context, id uuid.UUID, out SynthesisSuccess) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.syntheses[id]
	if !ok {
		return fmt.Errorf("ledger: commit synthesis: pending row %s not found", id)
	}
	rec.Success = true
	rec.AudioBytes = out.AudioBytes
	rec.AudioPath = out.AudioPath
	rec.LatencyMs = &out.LatencyMs
	rec.EstimatedCost = &out.EstimatedCost
	return nil
}

// CommitSynthesisFailure implements [Ledger].
func (l *MemLedger) CommitSynthesisFailure(_ context.Context, id uuid.UUID, fail Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.syntheses[id]
	if !ok {
		return fmt.Errorf("ledger: commit synthesis: pending row %s not found", id)
	}
	rec.Success = false
	rec.LatencyMs = &fail.LatencyMs
	rec.ErrorCode = fail.ErrorCode
	rec.ErrorMessage = fail.ErrorMessage
	return nil
}

// Generations returns all generation records in insertion order.
func (l *MemLedger) Generations() []GenerationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]GenerationRecord, 0, len(l.generations))
	for _, id := range l.order {
		if rec, ok := l.generations[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Transcriptions returns all transcription records in insertion order.
func (l *MemLedger) Transcriptions() []TranscriptionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TranscriptionRecord, 0, len(l.transcriptions))
	for _, id := range l.order {
		if rec, ok := l.transcriptions[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Syntheses returns all synthesis records in insertion order.
func (l *MemLedger) Syntheses() []SynthesisRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]SynthesisRecord, 0, len(l.syntheses))
	for _, id := range l.order {
		if rec, ok := l.syntheses[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}
