package progress

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory [Store] for tests and local development.
// Safe for concurrent use.
type MemStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*Conversation
	userWords     map[userWordKey]*UserWord
}

type userWordKey struct {
	userID uuid.UUID
	wordID string
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		conversations: make(map[uuid.UUID]*Conversation),
		userWords:     make(map[userWordKey]*UserWord),
	}
}

// CreateConversation implements [Store].
func (s *MemStore) CreateConversation(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

// GetConversation implements [Store].
func (s *MemStore) GetConversation(_ context.Context, id uuid.UUID) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return cloneConversation(conv), nil
}

// FindActiveConversation implements [Store].
func (s *MemStore) FindActiveConversation(_ context.Context, userID uuid.UUID, situationID string, modality Modality) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *Conversation
	for _, conv := range s.conversations {
		if conv.UserID != userID || conv.SituationID != situationID ||
			conv.Modality != modality || conv.Status != StatusActive {
			continue
		}
		if newest == nil || conv.CreatedAt.After(newest.CreatedAt) {
			newest = conv
		}
	}
	if newest == nil {
		return nil, nil
	}
	return cloneConversation(newest), nil
}

// SaveConversationProgress implements [Store].
func (s *MemStore) SaveConversationProgress(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

// GetUserWord implements [Store].
func (s *MemStore) GetUserWord(_ context.Context, userID uuid.UUID, wordID string) (*UserWord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uw, ok := s.userWords[userWordKey{userID, wordID}]
	if !ok {
		return nil, nil
	}
	clone := *uw
	return &clone, nil
}

// UpsertUserWord implements [Store].
func (s *MemStore) UpsertUserWord(_ context.Context, uw *UserWord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *uw
	s.userWords[userWordKey{uw.UserID, uw.WordID}] = &clone
	return nil
}

func cloneConversation(conv *Conversation) *Conversation {
	clone := *conv
	clone.TargetWordIDs = append([]string(nil), conv.TargetWordIDs...)
	clone.UsedTypedWordIDs = append([]string(nil), conv.UsedTypedWordIDs...)
	clone.UsedSpokenWordIDs = append([]string(nil), conv.UsedSpokenWordIDs...)
	return &clone
}
