// Package encounter orchestrates conversation turns: word detection, progress
// updates, and the ledgered AI calls that produce the coach's side of the
// exchange.
package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/encuentro-app/encuentro/internal/gateway"
	"github.com/encuentro-app/encuentro/internal/observe"
	"github.com/encuentro-app/encuentro/internal/progress"
	"github.com/encuentro-app/encuentro/internal/words"
)

// ErrConversationNotFound is returned when the conversation does not exist or
// belongs to another user.
var ErrConversationNotFound = errors.New("encounter: conversation not found")

// ErrModalityMismatch is returned when a turn arrives on the wrong endpoint
// for the conversation's modality.
var ErrModalityMismatch = errors.New("encounter: conversation modality does not match endpoint")

// ErrUnknownWordID is returned when a conversation is started with a target
// word id that does not exist.
var ErrUnknownWordID = errors.New("encounter: unknown target word id")

// ErrInvalidModality is returned for a modality outside typed/spoken.
var ErrInvalidModality = errors.New("encounter: invalid modality")

// Generator is the text-generation surface the orchestrator needs.
type Generator interface {
	Generate(ctx context.Context, req gateway.GenerateRequest) (*gateway.GenerateResult, error)
}

// Transcriber is the speech-to-text surface the orchestrator needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req gateway.TranscribeRequest) (*gateway.TranscribeResult, error)
}

// Synthesizer is the text-to-speech surface the orchestrator needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, req gateway.SynthesizeRequest) (*gateway.SynthesizeResult, error)
}

// Compile-time checks that the concrete gateways satisfy the surfaces.
var (
	_ Generator   = (*gateway.Generation)(nil)
	_ Transcriber = (*gateway.Transcription)(nil)
	_ Synthesizer = (*gateway.Synthesis)(nil)
)

// Config holds orchestrator tunables.
type Config struct {
	// Language is the ISO 639-1 hint passed to transcription. Default: "es".
	Language string

	// Voice is the synthesis voice. Empty uses the adapter default.
	Voice string
}

// Service is the turn orchestrator.
type Service struct {
	wordStore words.Store
	store     progress.Store
	tracker   *progress.Tracker
	gen       Generator
	stt       Transcriber
	tts       Synthesizer
	emitter   *observe.Emitter
	metrics   *observe.Metrics
	locks     *keyedMutex
	cfg       Config
}

// NewService wires the orchestrator.
func NewService(wordStore words.Store, store progress.Store, gen Generator, stt Transcriber, tts Synthesizer, em *observe.Emitter, met *observe.Metrics, cfg Config) *Service {
	if cfg.Language == "" {
		cfg.Language = "es"
	}
	return &Service{
		wordStore: wordStore,
		store:     store,
		tracker:   progress.NewTracker(store),
		gen:       gen,
		stt:       stt,
		tts:       tts,
		emitter:   em,
		metrics:   met,
		locks:     newKeyedMutex(),
		cfg:       cfg,
	}
}

// StartOrReuseConversation returns the user's active conversation for the
// (situation, modality) pair, creating one with the given target set when
// none exists. Creation seeds each target word's seen counter.
func (s *Service) StartOrReuseConversation(ctx context.Context, userID uuid.UUID, situationID string, modality progress.Modality, targetWordIDs []string) (*progress.Conversation, error) {
	if !modality.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModality, modality)
	}

	resolved, err := s.wordStore.GetByIDs(ctx, targetWordIDs)
	if err != nil {
		return nil, err
	}
	if len(resolved) != len(targetWordIDs) {
		known := make(map[string]bool, len(resolved))
		for _, w := range resolved {
			known[w.ID] = true
		}
		for _, id := range targetWordIDs {
			if !known[id] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownWordID, id)
			}
		}
	}

	return s.tracker.StartConversation(ctx, userID, situationID, modality, targetWordIDs)
}

// MissingWords returns the conversation's target words not yet used in its
// own modality, in target order.
func (s *Service) MissingWords(ctx context.Context, userID, conversationID uuid.UUID) ([]string, error) {
	conv, err := s.loadOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return progress.MissingWordIDs(conv, conv.Modality), nil
}

// loadOwned fetches the conversation and enforces ownership. A conversation
// belonging to another user is reported as not found, not as forbidden.
func (s *Service) loadOwned(ctx context.Context, userID, conversationID uuid.UUID) (*progress.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// targetWords resolves the conversation's target word rows in target order.
func (s *Service) targetWords(ctx context.Context, conv *progress.Conversation) ([]words.Word, error) {
	ws, err := s.wordStore.GetByIDs(ctx, conv.TargetWordIDs)
	if err != nil {
		return nil, err
	}
	return ws, nil
}
