package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MasteryThreshold is the number of correct spoken productions after which a
// word is considered mastered.
const MasteryThreshold = 2

// ErrEmptyTargetSet is returned when a conversation is started without
// target words.
var ErrEmptyTargetSet = errors.New("progress: target word set must not be empty")

// ErrWordOutsideTargetSet signals a broken invariant: the detector reported
// a word id that is not in the conversation's target set. Candidates are
// always drawn from the target set, so this must never happen; it is
// surfaced rather than guessed around.
var ErrWordOutsideTargetSet = errors.New("progress: detected word id outside target set")

// Tracker applies turn results to conversation and user-word state.
// It is stateless apart from the injected Store.
type Tracker struct {
	store Store
}

// NewTracker creates a Tracker using the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// StartConversation returns the user's active conversation for (situation,
// modality), creating one with the given fixed target set when none exists.
// On creation it increments each target word's seen counter — the only place
// seen counts change.
func (t *Tracker) StartConversation(ctx context.Context, userID uuid.UUID, situationID string, modality Modality, targetWordIDs []string) (*Conversation, error) {
	if len(targetWordIDs) == 0 {
		return nil, ErrEmptyTargetSet
	}

	existing, err := t.store.FindActiveConversation(ctx, userID, situationID, modality)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:            uuid.New(),
		UserID:        userID,
		SituationID:   situationID,
		Modality:      modality,
		TargetWordIDs: append([]string(nil), targetWordIDs...),
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	for _, wordID := range targetWordIDs {
		if err := t.bumpSeen(ctx, userID, wordID); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// Update merges detected word ids into the conversation's used set for the
// given modality and increments the matching per-word counters. Re-detecting
// an already-used word is a no-op on the set but still increments its
// counter, since counters track repetition rather than first use.
//
// Update persists the conversation but never changes its status; call
// [Tracker.FinishIfComplete] afterwards.
func (t *Tracker) Update(ctx context.Context, conv *Conversation, detected []string, modality Modality) error {
	targets := make(map[string]bool, len(conv.TargetWordIDs))
	for _, id := range conv.TargetWordIDs {
		targets[id] = true
	}
	for _, id := range detected {
		if !targets[id] {
			return fmt.Errorf("%w: %q in conversation %s", ErrWordOutsideTargetSet, id, conv.ID)
		}
	}

	used := conv.UsedWordIDs(modality)
	seen := make(map[string]bool, len(used))
	for _, id := range used {
		seen[id] = true
	}
	for _, id := range detected {
		if !seen[id] {
			used = append(used, id)
			seen[id] = true
		}
	}
	if modality == ModalitySpoken {
		conv.UsedSpokenWordIDs = used
	} else {
		conv.UsedTypedWordIDs = used
	}
	conv.UpdatedAt = time.Now().UTC()

	if err := t.store.SaveConversationProgress(ctx, conv); err != nil {
		return err
	}

	for _, id := range detected {
		if err := t.bumpCorrect(ctx, conv.UserID, id, modality); err != nil {
			return err
		}
	}
	return nil
}

// FinishIfComplete marks the conversation complete when every target word
// has been used in the given modality, or when the generation end flag was
// set. Returns whether the conversation is (now) complete. A conversation
// that is already complete stays complete.
func (t *Tracker) FinishIfComplete(ctx context.Context, conv *Conversation, modality Modality, endFlag bool) (bool, error) {
	if conv.Status == StatusComplete {
		return true, nil
	}
	if !IsComplete(conv, modality) && !endFlag {
		return false, nil
	}
	conv.Status = StatusComplete
	conv.UpdatedAt = time.Now().UTC()
	if err := t.store.SaveConversationProgress(ctx, conv); err != nil {
		return false, err
	}
	return true, nil
}

// IsComplete reports whether every target word has been used in the given
// modality.
func IsComplete(conv *Conversation, modality Modality) bool {
	used := make(map[string]bool, len(conv.UsedWordIDs(modality)))
	for _, id := range conv.UsedWordIDs(modality) {
		used[id] = true
	}
	for _, id := range conv.TargetWordIDs {
		if !used[id] {
			return false
		}
	}
	return true
}

// MissingWordIDs returns the target words not yet used in the given
// modality, in target order.
func MissingWordIDs(conv *Conversation, modality Modality) []string {
	used := make(map[string]bool, len(conv.UsedWordIDs(modality)))
	for _, id := range conv.UsedWordIDs(modality) {
		used[id] = true
	}
	missing := make([]string, 0, len(conv.TargetWordIDs))
	for _, id := range conv.TargetWordIDs {
		if !used[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// bumpSeen increments the seen counter for (user, word), creating the row on
// first exposure.
func (t *Tracker) bumpSeen(ctx context.Context, userID uuid.UUID, wordID string) error {
	uw, err := t.store.GetUserWord(ctx, userID, wordID)
	if err != nil {
		return err
	}
	if uw == nil {
		uw = &UserWord{
			UserID: userID,
			WordID: wordID,
			Status: WordStatusLearning,
		}
	}
	uw.SeenCount++
	uw.UpdatedAt = time.Now().UTC()
	return t.store.UpsertUserWord(ctx, uw)
}

// bumpCorrect increments the modality counter for (user, word) and applies
// the mastery transition. Mastery is one-way: once mastered, a row never
// reverts to learning.
func (t *Tracker) bumpCorrect(ctx context.Context, userID uuid.UUID, wordID string, modality Modality) error {
	uw, err := t.store.GetUserWord(ctx, userID, wordID)
	if err != nil {
		return err
	}
	if uw == nil {
		uw = &UserWord{
			UserID: userID,
			WordID: wordID,
			Status: WordStatusLearning,
		}
	}
	if modality == ModalitySpoken {
		uw.SpokenCorrectCount++
		if uw.SpokenCorrectCount >= MasteryThreshold {
			uw.Status = WordStatusMastered
		}
	} else {
		uw.TypedCorrectCount++
	}
	uw.UpdatedAt = time.Now().UTC()
	return t.store.UpsertUserWord(ctx, uw)
}
