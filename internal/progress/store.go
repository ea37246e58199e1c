package progress

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence boundary for conversations and user-word
// counters. Implementations must be safe for concurrent use.
//
// Lookup methods return (nil, nil) when no row exists; callers decide
// whether absence is an error.
type Store interface {
	// CreateConversation inserts a new conversation.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation returns the conversation with the given id.
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// FindActiveConversation returns the user's active conversation for the
	// given situation and modality, if any.
	FindActiveConversation(ctx context.Context, userID uuid.UUID, situationID string, modality Modality) (*Conversation, error)

	// SaveConversationProgress persists the conversation's used sets and
	// status.
	SaveConversationProgress(ctx context.Context, conv *Conversation) error

	// GetUserWord returns the counter row for (user, word).
	GetUserWord(ctx context.Context, userID uuid.UUID, wordID string) (*UserWord, error)

	// UpsertUserWord inserts or replaces the counter row for (user, word).
	UpsertUserWord(ctx context.Context, uw *UserWord) error
}
