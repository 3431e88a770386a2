package consumer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	slot             TEXT PRIMARY KEY,
	etag             TEXT NOT NULL DEFAULT '',
	template_version INTEGER NOT NULL DEFAULT 0,
	fetched_at       INTEGER NOT NULL,
	values_json      TEXT NOT NULL
)`

// SQLiteStore caches snapshots in a local SQLite file so activated config
// survives restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the cache at path with WAL journaling.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, slot Slot) (*Snapshot, error) {
	var (
		etag      string
		version   int64
		fetchedAt int64
		raw       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT etag, template_version, fetched_at, values_json FROM snapshots WHERE slot = ?`,
		string(slot),
	).Scan(&etag, &version, &fetchedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", slot, err)
	}
	values := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", slot, err)
	}
	return &Snapshot{
		Values:          values,
		ETag:            etag,
		TemplateVersion: model.VersionNumber(version),
		FetchedAt:       time.Unix(0, fetchedAt).UTC(),
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, slot Slot, snap *Snapshot) error {
	values := snap.Values
	if values == nil {
		values = map[string]string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (slot, etag, template_version, fetched_at, values_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   etag = excluded.etag,
		   template_version = excluded.template_version,
		   fetched_at = excluded.fetched_at,
		   values_json = excluded.values_json`,
		string(slot), snap.ETag, int64(snap.TemplateVersion), snap.FetchedAt.UnixNano(), string(raw),
	)
	if err != nil {
		return fmt.Errorf("write %s snapshot: %w", slot, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
