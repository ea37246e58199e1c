package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the conversations and user_words tables.
// Execute it via [PostgresStore.Migrate] or apply it manually during
// deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id                   UUID PRIMARY KEY,
    user_id              UUID NOT NULL,
    situation_id         TEXT NOT NULL,
    modality             TEXT NOT NULL,
    target_word_ids      JSONB NOT NULL,
    used_typed_word_ids  JSONB NOT NULL DEFAULT '[]',
    used_spoken_word_ids JSONB NOT NULL DEFAULT '[]',
    status               TEXT NOT NULL DEFAULT 'active',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);
CREATE INDEX IF NOT EXISTS idx_conversations_user_situation
    ON conversations(user_id, situation_id, modality) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS user_words (
    user_id              UUID NOT NULL,
    word_id              TEXT NOT NULL,
    seen_count           INTEGER NOT NULL DEFAULT 0,
    typed_correct_count  INTEGER NOT NULL DEFAULT 0,
    spoken_correct_count INTEGER NOT NULL DEFAULT 0,
    status               TEXT NOT NULL DEFAULT 'learning',
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, word_id)
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Word id sets
// are serialised as JSONB arrays.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. Call [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("progress: migrate: %w", err)
	}
	return nil
}

// CreateConversation implements [Store].
func (s *PostgresStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	targetJSON, err := json.Marshal(emptySlice(conv.TargetWordIDs))
	if err != nil {
		return fmt.Errorf("progress: marshal target_word_ids: %w", err)
	}
	typedJSON, err := json.Marshal(emptySlice(conv.UsedTypedWordIDs))
	if err != nil {
		return fmt.Errorf("progress: marshal used_typed_word_ids: %w", err)
	}
	spokenJSON, err := json.Marshal(emptySlice(conv.UsedSpokenWordIDs))
	if err != nil {
		return fmt.Errorf("progress: marshal used_spoken_word_ids: %w", err)
	}

	const query = `
		INSERT INTO conversations (
			id, user_id, situation_id, modality,
			target_word_ids, used_typed_word_ids, used_spoken_word_ids,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err = s.db.Exec(ctx, query,
		conv.ID, conv.UserID, conv.SituationID, conv.Modality,
		targetJSON, typedJSON, spokenJSON,
		conv.Status, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("progress: create conversation: %w", err)
	}
	return nil
}

// GetConversation implements [Store].
func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	const query = `
		SELECT id, user_id, situation_id, modality,
		       target_word_ids, used_typed_word_ids, used_spoken_word_ids,
		       status, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	return s.scanConversation(s.db.QueryRow(ctx, query, id))
}

// FindActiveConversation implements [Store].
func (s *PostgresStore) FindActiveConversation(ctx context.Context, userID uuid.UUID, situationID string, modality Modality) (*Conversation, error) {
	const query = `
		SELECT id, user_id, situation_id, modality,
		       target_word_ids, used_typed_word_ids, used_spoken_word_ids,
		       status, created_at, updated_at
		FROM conversations
		WHERE user_id = $1 AND situation_id = $2 AND modality = $3 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	return s.scanConversation(s.db.QueryRow(ctx, query, userID, situationID, modality))
}

// SaveConversationProgress implements [Store].
func (s *PostgresStore) SaveConversationProgress(ctx context.Context, conv *Conversation) error {
	typedJSON, err := json.Marshal(emptySlice(conv.UsedTypedWordIDs))
	if err != nil {
		return fmt.Errorf("progress: marshal used_typed_word_ids: %w", err)
	}
	spokenJSON, err := json.Marshal(emptySlice(conv.UsedSpokenWordIDs))
	if err != nil {
		return fmt.Errorf("progress: marshal used_spoken_word_ids: %w", err)
	}

	const query = `
		UPDATE conversations
		SET used_typed_word_ids = $2, used_spoken_word_ids = $3,
		    status = $4, updated_at = $5
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, conv.ID, typedJSON, spokenJSON, conv.Status, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("progress: save conversation %s: %w", conv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("progress: save conversation %s: not found", conv.ID)
	}
	return nil
}

// GetUserWord implements [Store].
func (s *PostgresStore) GetUserWord(ctx context.Context, userID uuid.UUID, wordID string) (*UserWord, error) {
	const query = `
		SELECT user_id, word_id, seen_count, typed_correct_count,
		       spoken_correct_count, status, updated_at
		FROM user_words
		WHERE user_id = $1 AND word_id = $2`

	var uw UserWord
	err := s.db.QueryRow(ctx, query, userID, wordID).Scan(
		&uw.UserID, &uw.WordID, &uw.SeenCount, &uw.TypedCorrectCount,
		&uw.SpokenCorrectCount, &uw.Status, &uw.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress: get user word: %w", err)
	}
	return &uw, nil
}

// UpsertUserWord implements [Store].
func (s *PostgresStore) UpsertUserWord(ctx context.Context, uw *UserWord) error {
	const query = `
		INSERT INTO user_words (
			user_id, word_id, seen_count, typed_correct_count,
			spoken_correct_count, status, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			seen_count = EXCLUDED.seen_count,
			typed_correct_count = EXCLUDED.typed_correct_count,
			spoken_correct_count = EXCLUDED.spoken_correct_count,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.Exec(ctx, query,
		uw.UserID, uw.WordID, uw.SeenCount, uw.TypedCorrectCount,
		uw.SpokenCorrectCount, uw.Status, uw.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("progress: upsert user word: %w", err)
	}
	return nil
}

// scanConversation scans one conversation row, returning (nil, nil) when the
// row does not exist.
func (s *PostgresStore) scanConversation(row pgx.Row) (*Conversation, error) {
	var conv Conversation
	var targetJSON, typedJSON, spokenJSON []byte

	err := row.Scan(
		&conv.ID, &conv.UserID, &conv.SituationID, &conv.Modality,
		&targetJSON, &typedJSON, &spokenJSON,
		&conv.Status, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress: get conversation: %w", err)
	}

	if err := json.Unmarshal(targetJSON, &conv.TargetWordIDs); err != nil {
		return nil, fmt.Errorf("progress: unmarshal target_word_ids: %w", err)
	}
	if err := json.Unmarshal(typedJSON, &conv.UsedTypedWordIDs); err != nil {
		return nil, fmt.Errorf("progress: unmarshal used_typed_word_ids: %w", err)
	}
	if err := json.Unmarshal(spokenJSON, &conv.UsedSpokenWordIDs); err != nil {
		return nil, fmt.Errorf("progress: unmarshal used_spoken_word_ids: %w", err)
	}
	return &conv, nil
}

// emptySlice returns s, or an empty slice when s is nil, so JSONB columns
// store [] rather than null.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
