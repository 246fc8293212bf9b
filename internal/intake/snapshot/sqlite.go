package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tiger/voice-intake-controller/api/intake"

	_ "modernc.org/sqlite"
)

// Store persists incremental answer snapshots for crash recovery. It is
// written after accepted answers and read back only by recovery tooling,
// never by the controller during normal operation.
type Store interface {
	Save(ctx context.Context, sessionID string, answers map[string]intake.AnswerRecord) error
	Load(ctx context.Context, sessionID string) (map[string]intake.AnswerRecord, error)
	Close() error
}

// SQLiteStore keeps snapshots in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the snapshot database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS answer_snapshots (
  session_id TEXT NOT NULL,
  field_key TEXT NOT NULL,
  raw_transcript TEXT NOT NULL,
  processed_value TEXT NOT NULL,
  source TEXT NOT NULL,
  confidence REAL NOT NULL,
  validation_state TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (session_id, field_key)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create answer_snapshots table: %w", err)
	}
	return nil
}

// Save upserts every answer in the snapshot for a session.
func (s *SQLiteStore) Save(ctx context.Context, sessionID string, answers map[string]intake.AnswerRecord) error {
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	const stmt = `
INSERT INTO answer_snapshots (session_id, field_key, raw_transcript, processed_value, source, confidence, validation_state, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, field_key) DO UPDATE SET
  raw_transcript=excluded.raw_transcript,
  processed_value=excluded.processed_value,
  source=excluded.source,
  confidence=excluded.confidence,
  validation_state=excluded.validation_state,
  updated_at=excluded.updated_at;
`
	updatedAt := s.now().UTC().Format(time.RFC3339)
	for _, answer := range answers {
		if _, err := tx.ExecContext(ctx, stmt,
			sessionID,
			answer.FieldKey,
			answer.RawTranscript,
			answer.ProcessedValue,
			string(answer.Source),
			answer.Confidence,
			string(answer.ValidationState),
			updatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert snapshot %s/%s: %w", sessionID, answer.FieldKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot for a session.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (map[string]intake.AnswerRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	const query = `
SELECT field_key, raw_transcript, processed_value, source, confidence, validation_state
FROM answer_snapshots WHERE session_id = ?;
`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	answers := map[string]intake.AnswerRecord{}
	for rows.Next() {
		var answer intake.AnswerRecord
		var source, state string
		if err := rows.Scan(
			&answer.FieldKey,
			&answer.RawTranscript,
			&answer.ProcessedValue,
			&source,
			&answer.Confidence,
			&state,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		answer.Source = intake.AnswerSource(source)
		answer.ValidationState = intake.ValidationState(state)
		answers[answer.FieldKey] = answer
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return answers, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NullStore discards snapshots; used when crash recovery is disabled.
type NullStore struct{}

// Save discards the snapshot.
func (NullStore) Save(context.Context, string, map[string]intake.AnswerRecord) error {
	return nil
}

// Load returns an empty snapshot.
func (NullStore) Load(context.Context, string) (map[string]intake.AnswerRecord, error) {
	return map[string]intake.AnswerRecord{}, nil
}

// Close is a no-op.
func (NullStore) Close() error {
	return nil
}
