//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"synaptrace/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveTrace(ctx context.Context, record model.TraceRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTrace(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO traces (id, created_at, fingerprint, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			fingerprint = excluded.fingerprint,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.ID, record.CreatedAtUTC, record.Fingerprint, record.SchemaVersion, record.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetTrace(ctx context.Context, id string) (model.TraceRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.TraceRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM traces WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TraceRecord{}, false, nil
		}
		return model.TraceRecord{}, false, err
	}

	record, err := DecodeTrace(payload)
	if err != nil {
		return model.TraceRecord{}, false, fmt.Errorf("decode trace %s: %w", id, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListTraces(ctx context.Context, limit int) ([]model.TraceRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM traces ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TraceRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		record, err := DecodeTrace(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteTrace(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM summaries WHERE trace_id = ?`, id)
	return err
}

func (s *SQLiteStore) SaveSummary(ctx context.Context, record model.TraceSummaryRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSummary(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO summaries (trace_id, payload)
		VALUES (?, ?)
		ON CONFLICT(trace_id) DO UPDATE SET
			payload = excluded.payload
	`, record.TraceID, payload)
	return err
}

func (s *SQLiteStore) GetSummary(ctx context.Context, traceID string) (model.TraceSummaryRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.TraceSummaryRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM summaries WHERE trace_id = ?`, traceID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TraceSummaryRecord{}, false, nil
		}
		return model.TraceSummaryRecord{}, false, err
	}

	record, err := DecodeSummary(payload)
	if err != nil {
		return model.TraceSummaryRecord{}, false, fmt.Errorf("decode summary %s: %w", traceID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS traces (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS summaries (
			trace_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS traces_fingerprint ON traces (fingerprint);
	`)
	return err
}
