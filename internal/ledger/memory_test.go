package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemLedger_GenerationTwoPhase(t *testing.T) {
	led := NewMemLedger()
	ctx := context.Background()

	rec := &GenerationRecord{
		RequestID:    "req-1",
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		MessagesJSON: []byte(`[{"role":"system","content":"x"}]`),
		Success:      true, // must be forced back to false
	}
	if err := led.BeginGeneration(ctx, rec); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if rec.ID == uuid.Nil || rec.CreatedAt.IsZero() {
		t.Error("Begin did not stamp id/created_at")
	}

	rows := led.Generations()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Success {
		t.Error("pending row marked success")
	}

	in, out := 120, 30
	err := led.CommitGenerationSuccess(ctx, rec.ID, GenerationSuccess{
		ResponseJSON:  []byte(`{"text":"hola"}`),
		TokensIn:      in,
		TokensOut:     out,
		LatencyMs:     250,
		EstimatedCost: 0.0001,
	})
	if err != nil {
		t.Fatalf("CommitGenerationSuccess: %v", err)
	}

	got := led.Generations()[0]
	if !got.Success {
		t.Error("Success = false after commit")
	}
	if got.TokensIn == nil || *got.TokensIn != in || got.TokensOut == nil || *got.TokensOut != out {
		t.Errorf("tokens = %v/%v", got.TokensIn, got.TokensOut)
	}
	if got.LatencyMs == nil || *got.LatencyMs != 250 {
		t.Errorf("LatencyMs = %v", got.LatencyMs)
	}
}

func TestMemLedger_FailureKeepsSuccessFalse(t *testing.T) {
	led := NewMemLedger()
	ctx := context.Background()

	rec := &TranscriptionRecord{Provider: "openai", Model: "whisper-1", AudioSHA256: "abc", AudioBytes: 42}
	if err := led.BeginTranscription(ctx, rec); err != nil {
		t.Fatalf("BeginTranscription: %v", err)
	}
	err := led.CommitTranscriptionFailure(ctx, rec.ID, Failure{
		LatencyMs:    90,
		ErrorCode:    "provider_error",
		ErrorMessage: "boom",
	})
	if err != nil {
		t.Fatalf("CommitTranscriptionFailure: %v", err)
	}

	got := led.Transcriptions()[0]
	if got.Success {
		t.Error("Success = true after failure commit")
	}
	if got.ErrorCode != "provider_error" || got.ErrorMessage != "boom" {
		t.Errorf("error fields = %q / %q", got.ErrorCode, got.ErrorMessage)
	}
}

func TestMemLedger_CommitUnknownRow(t *testing.T) {
	led := NewMemLedger()
	ctx := context.Background()

	if err := led.CommitGenerationSuccess(ctx, uuid.New(), GenerationSuccess{}); err == nil {
		t.Error("commit on unknown generation row succeeded")
	}
	if err := led.CommitTranscriptionFailure(ctx, uuid.New(), Failure{}); err == nil {
		t.Error("commit on unknown transcription row succeeded")
	}
	if err := led.CommitSynthesisSuccess(ctx, uuid.New(), SynthesisSuccess{}); err == nil {
		t.Error("commit on unknown synthesis row succeeded")
	}
}

func TestMemLedger_SynthesisRoundTrip(t *testing.T) {
	led := NewMemLedger()
	ctx := context.Background()

	rec := &SynthesisRecord{
		Provider:        "openai",
		Model:           "tts-1",
		Voice:           "nova",
		InputTextSHA256: "deadbeef",
		InputChars:      19,
	}
	if err := led.BeginSynthesis(ctx, rec); err != nil {
		t.Fatalf("BeginSynthesis: %v", err)
	}
	err := led.CommitSynthesisSuccess(ctx, rec.ID, SynthesisSuccess{
		AudioBytes:    2048,
		AudioPath:     "/audio/x.mp3",
		LatencyMs:     600,
		EstimatedCost: 0.000285,
	})
	if err != nil {
		t.Fatalf("CommitSynthesisSuccess: %v", err)
	}

	got := led.Syntheses()[0]
	if !got.Success || got.AudioBytes != 2048 || got.AudioPath != "/audio/x.mp3" {
		t.Errorf("row = %+v", got)
	}
}

func TestMemLedger_InsertionOrder(t *testing.T) {
	led := NewMemLedger()
	ctx := context.Background()

	first := &GenerationRecord{RequestID: "a"}
	second := &GenerationRecord{RequestID: "b"}
	if err := led.BeginGeneration(ctx, first); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if err := led.BeginGeneration(ctx, second); err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}

	rows := led.Generations()
	if len(rows) != 2 || rows[0].RequestID != "a" || rows[1].RequestID != "b" {
		t.Errorf("rows out of order: %+v", rows)
	}
}
