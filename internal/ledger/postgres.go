package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the three AI call tables. Execute it via
// [PostgresLedger.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS llm_requests (
    id             UUID PRIMARY KEY,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    request_id     TEXT NOT NULL,
    user_id        UUID,
    provider       TEXT NOT NULL,
    model          TEXT NOT NULL,
    messages_json  JSONB NOT NULL,
    temperature    DOUBLE PRECISION,
    max_tokens     INTEGER,
    response_json  JSONB,
    tokens_in      INTEGER,
    tokens_out     INTEGER,
    estimated_cost DOUBLE PRECISION,
    latency_ms     INTEGER,
    success        BOOLEAN NOT NULL DEFAULT false,
    error_code     TEXT,
    error_message  TEXT
);
CREATE INDEX IF NOT EXISTS idx_llm_requests_request ON llm_requests(request_id);
CREATE INDEX IF NOT EXISTS idx_llm_requests_user ON llm_requests(user_id);
CREATE INDEX IF NOT EXISTS idx_llm_requests_success ON llm_requests(success);

CREATE TABLE IF NOT EXISTS stt_requests (
    id              UUID PRIMARY KEY,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    request_id      TEXT NOT NULL,
    user_id         UUID,
    provider        TEXT NOT NULL,
    model           TEXT NOT NULL,
    audio_sha256    TEXT,
    audio_bytes     INTEGER,
    audio_format    TEXT,
    language        TEXT,
    transcript_text TEXT,
    estimated_cost  DOUBLE PRECISION,
    latency_ms      INTEGER,
    success         BOOLEAN NOT NULL DEFAULT false,
    error_code      TEXT,
    error_message   TEXT
);
CREATE INDEX IF NOT EXISTS idx_stt_requests_request ON stt_requests(request_id);
CREATE INDEX IF NOT EXISTS idx_stt_requests_user ON stt_requests(user_id);
CREATE INDEX IF NOT EXISTS idx_stt_requests_success ON stt_requests(success);

CREATE TABLE IF NOT EXISTS tts_requests (
    id                UUID PRIMARY KEY,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    request_id        TEXT NOT NULL,
    user_id           UUID,
    provider          TEXT NOT NULL,
    model             TEXT NOT NULL,
    voice             TEXT,
    input_text_sha256 TEXT,
    input_chars       INTEGER,
    audio_bytes       INTEGER,
    output_format     TEXT,
    audio_path        TEXT,
    estimated_cost    DOUBLE PRECISION,
    latency_ms        INTEGER,
    success           BOOLEAN NOT NULL DEFAULT false,
    error_code        TEXT,
    error_message     TEXT
);
CREATE INDEX IF NOT EXISTS idx_tts_requests_request ON tts_requests(request_id);
CREATE INDEX IF NOT EXISTS idx_tts_requests_user ON tts_requests(user_id);
CREATE INDEX IF NOT EXISTS idx_tts_requests_success ON tts_requests(success);
`

// DB is the database interface used by [PostgresLedger]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLedger is a [Ledger] backed by a PostgreSQL database.
type PostgresLedger struct {
	db DB
}

// Compile-time interface check.
var _ Ledger = (*PostgresLedger)(nil)

// NewPostgresLedger creates a new [PostgresLedger] that uses the given
// database connection or pool. Call [PostgresLedger.Migrate] before issuing
// queries.
func NewPostgresLedger(db DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ledger: migrate: %w", err)
	}
	return nil
}

// BeginGeneration implements [Ledger].
func (l *PostgresLedger) BeginGeneration(ctx context.Context, rec *GenerationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	const query = `
		INSERT INTO llm_requests (
			id, created_at, request_id, user_id, provider, model,
			messages_json, temperature, max_tokens, success
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false)`

	_, err := l.db.Exec(ctx, query,
		rec.ID, rec.CreatedAt, rec.RequestID, rec.UserID, rec.Provider, rec.Model,
		rec.MessagesJSON, rec.Temperature, rec.MaxTokens,
	)
	if err != nil {
		return fmt.Errorf("ledger: begin generation: %w", err)
	}
	return nil
}

// CommitGenerationSuccess implements [Ledger].
func (l *PostgresLedger) CommitGenerationSuccess(ctx context.Context, id uuid.UUID, out GenerationSuccess) error {
	const query = `
		UPDATE llm_requests
		SET success = true, response_json = $2, tokens_in = $3, tokens_out = $4,
		    latency_ms = $5, estimated_cost = $6
		WHERE id = $1`

	return l.commit(ctx, "generation", query,
		id, out.ResponseJSON, out.TokensIn, out.TokensOut, out.LatencyMs, out.EstimatedCost)
}

// CommitGenerationFailure implements [Ledger].
func (l *PostgresLedger) CommitGenerationFailure(ctx context.Context, id uuid.UUID, fail Failure) error {
	const query = `
		UPDATE llm_requests
		SET success = false, latency_ms = $2, error_code = $3, error_message = $4
		WHERE id = $1`

	return l.commit(ctx, "generation", query, id, fail.LatencyMs, fail.ErrorCode, fail.ErrorMessage)
}

// BeginTranscription implements [Ledger].
func (l *PostgresLedger) BeginTranscription(ctx context.Context, rec *TranscriptionRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	const query = `
		INSERT INTO stt_requests (
			id, created_at, request_id, user_id, provider, model,
			audio_sha256, audio_bytes, audio_format, language, success
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false)`

	_, err := l.db.Exec(ctx, query,
		rec.ID, rec.CreatedAt, rec.RequestID, rec.UserID, rec.Provider, rec.Model,
		rec.AudioSHA256, rec.AudioBytes, rec.AudioFormat, nullable(rec.Language),
	)
	if err != nil {
		return fmt.Errorf("ledger: begin transcription: %w", err)
	}
	return nil
}

// CommitTranscriptionSuccess implements [Ledger].
func (l *PostgresLedger) CommitTranscriptionSuccess(ctx context.Context, id uuid.UUID, out TranscriptionSuccess) error {
	const query = `
		UPDATE stt_requests
		SET success = true, transcript_text = $2, latency_ms = $3, estimated_cost = $4
		WHERE id = $1`

	return l.commit(ctx, "transcription", query, id, out.Transcript, out.LatencyMs, out.EstimatedCost)
}

// CommitTranscriptionFailure implements [Ledger].
func (l *PostgresLedger) CommitTranscriptionFailure(ctx context.Context, id uuid.UUID, fail Failure) error {
	const query = `
		UPDATE stt_requests
		SET success = false, latency_ms = $2, error_code = $3, error_message = $4
		WHERE id = $1`

	return l.commit(ctx, "transcription", query, id, fail.LatencyMs, fail.ErrorCode, fail.ErrorMessage)
}

// BeginSynthesis implements [Ledger].
func (l *PostgresLedger) BeginSynthesis(ctx context.Context, rec *SynthesisRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	rec.Success = false

	const query = `
		INSERT INTO tts_requests (
			id, created_at, request_id, user_id, provider, model,
			voice, input_text_sha256, input_chars, output_format, success
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,false)`

	_, err := l.db.Exec(ctx, query,
		rec.ID, rec.CreatedAt, rec.RequestID, rec.UserID, rec.Provider, rec.Model,
		rec.Voice, rec.InputTextSHA256, rec.InputChars, rec.OutputFormat,
	)
	if err != nil {
		return fmt.Errorf("ledger: begin synthesis: %w", err)
	}
	return nil
}

// CommitSynthesisSuccess implements [Ledger].
func (l *PostgresLedger) CommitSynthesisSuccess(ctx context.Context, id uuid.UUID, out SynthesisSuccess) error {
	const query = `
		UPDATE tts_requests
		SET success = true, audio_bytes = $2, audio_path = $3, latency_ms = $4, estimated_cost = $5
		WHERE id = $1`

	return l.commit(ctx, "synthesis", query, id, out.AudioBytes, out.AudioPath, out.LatencyMs, out.EstimatedCost)
}

// CommitSynthesisFailure implements [Ledger].
func (l *PostgresLedger) CommitSynthesisFailure(ctx context.Context, id uuid.UUID, fail Failure) error {
	const query = `
		UPDATE tts_requests
		SET success = false, latency_ms = $2, error_code = $3, error_message = $4
		WHERE id = $1`

	return l.commit(ctx, "synthesis", query, id, fail.LatencyMs, fail.ErrorCode, fail.ErrorMessage)
}

// commit runs an update against the pending row and verifies it existed.
func (l *PostgresLedger) commit(ctx context.Context, kind, query string, args ...any) error {
	tag, err := l.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ledger: commit %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: commit %s: pending row %v not found", kind, args[0])
	}
	return nil
}

// nullable maps the empty string to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
