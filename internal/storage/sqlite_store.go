package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/tasklite/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore keeps each state blob in the snapshots table, one row per
// storage key, versioned and timestamped.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens (or creates) the database at path and applies pending
// migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadTasks(ctx context.Context) ([]model.PersistedTask, error) {
	payload, err := s.loadBlob(ctx, KeyTasks)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.PersistedTask{}, nil
		}
		return nil, err
	}
	var out []model.PersistedTask
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode tasks blob: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveTasks(ctx context.Context, tasks []model.PersistedTask) error {
	if tasks == nil {
		tasks = []model.PersistedTask{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks blob: %w", err)
	}
	return s.saveBlob(ctx, KeyTasks, payload)
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (Settings, error) {
	payload, err := s.loadBlob(ctx, KeySettings)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	var out Settings
	if err := json.Unmarshal(payload, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings blob: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, settings Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings blob: %w", err)
	}
	return s.saveBlob(ctx, KeySettings, payload)
}

func (s *SQLiteStore) loadBlob(ctx context.Context, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE key = ?`, key)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) saveBlob(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, SchemaVersion, string(payload), time.Now().UTC().Format(sqliteTimeLayout),
	)
	return err
}
