package encounter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/gateway"
	"github.com/encuentro-app/encuentro/internal/progress"
	"github.com/encuentro-app/encuentro/internal/words"
)

// TurnResult is the outcome of a typed turn.
type TurnResult struct {
	DetectedWordIDs []string
	MissingWordIDs  []string
	Complete        bool
}

// ReplyResult is a plain coach reply.
type ReplyResult struct {
	Text string
}

// VoiceTurnResult is the outcome of a full voice turn.
type VoiceTurnResult struct {
	Transcript        string
	DetectedWordIDs   []string
	MissingWordIDs    []string
	AssistantText     string
	AssistantAudioURL string
	Complete          bool
}

// TypedTurn processes one typed learner message: detect target words, merge
// them into the conversation's typed used set, bump per-word counters, and
// decide completion. No AI call is made.
func (s *Service) TypedTurn(ctx context.Context, userID, conversationID uuid.UUID, text string) (*TurnResult, error) {
	unlock := s.locks.lock(conversationID)
	defer unlock()

	conv, err := s.loadOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Modality != progress.ModalityTyped {
		return nil, ErrModalityMismatch
	}

	targets, err := s.targetWords(ctx, conv)
	if err != nil {
		return nil, err
	}

	detected := words.Detect(text, targets)
	if err := s.tracker.Update(ctx, conv, detected, progress.ModalityTyped); err != nil {
		return nil, err
	}

	complete, err := s.finish(ctx, conv, progress.ModalityTyped, false)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTurn(ctx, string(progress.ModalityTyped), "ok")
	s.metrics.RecordWordDetections(ctx, string(progress.ModalityTyped), len(detected))
	s.emitter.Emit(ctx, "turn_complete", map[string]any{
		"conversation_id": conv.ID.String(),
		"modality":        string(progress.ModalityTyped),
		"detected":        len(detected),
		"complete":        complete,
	})

	return &TurnResult{
		DetectedWordIDs: detected,
		MissingWordIDs:  progress.MissingWordIDs(conv, progress.ModalityTyped),
		Complete:        complete,
	}, nil
}

// CoachReply generates a short English nudge towards the conversation's
// missing words. It reads progress but never changes it, and unlike the rest
// of the turn pipeline it carries no end flag.
func (s *Service) CoachReply(ctx context.Context, userID, conversationID uuid.UUID) (*ReplyResult, error) {
	conv, err := s.loadOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Modality != progress.ModalityTyped {
		return nil, ErrModalityMismatch
	}

	targets, err := s.targetWords(ctx, conv)
	if err != nil {
		return nil, err
	}

	res, err := s.gen.Generate(ctx, gateway.GenerateRequest{
		SystemPrompt: coachSystemPrompt,
		UserPrompt:   coachUserPrompt(conv.SituationID, targets, conv.UsedTypedWordIDs),
		UserID:       &conv.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &ReplyResult{Text: res.Text}, nil
}

// VoiceTurn runs the full spoken pipeline: transcribe, detect, update
// progress, generate the structured coach reply, synthesize it, and decide
// completion. Stages commit as they go; a failure part-way leaves the earlier
// stages' effects in place.
func (s *Service) VoiceTurn(ctx context.Context, userID, conversationID uuid.UUID, audioBytes []byte, filename string) (*VoiceTurnResult, error) {
	unlock := s.locks.lock(conversationID)
	defer unlock()

	start := time.Now()

	conv, err := s.loadOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Modality != progress.ModalitySpoken {
		return nil, ErrModalityMismatch
	}

	targets, err := s.targetWords(ctx, conv)
	if err != nil {
		return nil, err
	}

	// 1. Transcribe the learner's audio.
	trans, err := s.stt.Transcribe(ctx, gateway.TranscribeRequest{
		Audio:    audioBytes,
		Filename: filename,
		Prompt:   transcriptionHint(targets),
		Language: s.cfg.Language,
		UserID:   &conv.UserID,
	})
	if err != nil {
		s.metrics.RecordTurn(ctx, string(progress.ModalitySpoken), "error")
		return nil, err
	}

	// 2-3. Detect target words and commit spoken progress.
	detected := words.Detect(trans.Text, targets)
	if err := s.tracker.Update(ctx, conv, detected, progress.ModalitySpoken); err != nil {
		return nil, err
	}

	// 4. Structured coach reply.
	gen, err := s.gen.Generate(ctx, gateway.GenerateRequest{
		SystemPrompt: voiceSystemPrompt,
		UserPrompt:   voiceUserPrompt(conv.SituationID, targets, conv.UsedSpokenWordIDs, trans.Text),
		Structured:   true,
		UserID:       &conv.UserID,
	})
	if err != nil {
		s.metrics.RecordTurn(ctx, string(progress.ModalitySpoken), "error")
		return nil, err
	}
	var reply voiceReply
	if err := gateway.DecodeStructured(gen.Text, &reply); err != nil {
		s.metrics.RecordTurn(ctx, string(progress.ModalitySpoken), "error")
		return nil, err
	}

	// 5. Synthesize the reply.
	synth, err := s.tts.Synthesize(ctx, gateway.SynthesizeRequest{
		Text:   reply.AssistantText,
		Voice:  s.cfg.Voice,
		UserID: &conv.UserID,
	})
	if err != nil {
		s.metrics.RecordTurn(ctx, string(progress.ModalitySpoken), "error")
		return nil, err
	}

	// 6. Completion: all targets spoken, or the model closed the encounter.
	complete, err := s.finish(ctx, conv, progress.ModalitySpoken, reply.EndConversation)
	if err != nil {
		return nil, err
	}

	s.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.RecordTurn(ctx, string(progress.ModalitySpoken), "ok")
	s.metrics.RecordWordDetections(ctx, string(progress.ModalitySpoken), len(detected))
	s.emitter.Emit(ctx, "turn_complete", map[string]any{
		"conversation_id": conv.ID.String(),
		"modality":        string(progress.ModalitySpoken),
		"detected":        len(detected),
		"complete":        complete,
	})

	return &VoiceTurnResult{
		Transcript:        trans.Text,
		DetectedWordIDs:   detected,
		MissingWordIDs:    progress.MissingWordIDs(conv, progress.ModalitySpoken),
		AssistantText:     reply.AssistantText,
		AssistantAudioURL: synth.Ref.URL,
		Complete:          complete,
	}, nil
}

// finish applies the completion decision and counts first-time completions.
func (s *Service) finish(ctx context.Context, conv *progress.Conversation, modality progress.Modality, endFlag bool) (bool, error) {
	wasComplete := conv.Status == progress.StatusComplete
	complete, err := s.tracker.FinishIfComplete(ctx, conv, modality, endFlag)
	if err != nil {
		return false, err
	}
	if complete && !wasComplete {
		s.metrics.ConversationsCompleted.Add(ctx, 1)
	}
	return complete, nil
}
