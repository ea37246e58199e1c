package words

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the words table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS words (
    id             TEXT PRIMARY KEY,
    spanish        TEXT NOT NULL,
    english        TEXT NOT NULL,
    category       TEXT NOT NULL DEFAULT '',
    frequency_rank INTEGER,
    notes          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_words_category ON words(category);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
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
		return fmt.Errorf("words: migrate: %w", err)
	}
	return nil
}

// GetByIDs implements [Store].
func (s *PostgresStore) GetByIDs(ctx context.Context, ids []string) ([]Word, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, spanish, english, category, frequency_rank, notes
		FROM words
		WHERE id = ANY($1)`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("words: get by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Word, len(ids))
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Spanish, &w.English, &w.Category, &w.FrequencyRank, &w.Notes); err != nil {
			return nil, fmt.Errorf("words: scan: %w", err)
		}
		byID[w.ID] = w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("words: rows: %w", err)
	}

	// Preserve the caller's id order; it is the target-word order fixed at
	// conversation creation.
	result := make([]Word, 0, len(byID))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			result = append(result, w)
		}
	}
	return result, nil
}
