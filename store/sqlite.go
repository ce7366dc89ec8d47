package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

type sqliteStorage struct {
	db  *sql.DB
	cfg config
}

var _ Storage = (*sqliteStorage)(nil)

// NewSQLite returns a Storage backed by a SQLite database, which survives
// worker restarts. If dbPath is empty or ":memory:", an in-memory database
// is used.
func NewSQLite(dbPath string, opts ...Option) (Storage, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrent performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS stores (
		name TEXT PRIMARY KEY
	)`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		store TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		stored_at INTEGER NOT NULL,
		PRIMARY KEY (store, key)
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStorage{db: db, cfg: applyOptions(opts)}, nil
}

func (s *sqliteStorage) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *sqliteStorage) Open(ctx context.Context, name string) (Store, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	if _, err := s.db.ExecContext(qctx,
		`INSERT INTO stores (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, err
	}
	return &sqliteStore{parent: s, name: name}, nil
}

func (s *sqliteStorage) Names(ctx context.Context) ([]string, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(qctx, `SELECT name FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *sqliteStorage) Has(ctx context.Context, name string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	var one int
	err := s.db.QueryRowContext(qctx, `SELECT 1 FROM stores WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteStorage) Remove(ctx context.Context, name string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	if _, err := s.db.ExecContext(qctx, `DELETE FROM snapshots WHERE store = ?`, name); err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(qctx, `DELETE FROM stores WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type sqliteStore struct {
	parent *sqliteStorage
	name   string
}

var _ Store = (*sqliteStore)(nil)

func (s *sqliteStore) Get(ctx context.Context, key string) (*Snapshot, bool, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	var data []byte
	err := s.parent.db.QueryRowContext(qctx,
		`SELECT value FROM snapshots WHERE store = ? AND key = ?`, s.name, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, key string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	_, err = s.parent.db.ExecContext(qctx,
		`INSERT INTO snapshots (store, key, value, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at`,
		s.name, key, data, time.Now().UnixNano())
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	result, err := s.parent.db.ExecContext(qctx,
		`DELETE FROM snapshots WHERE store = ? AND key = ?`, s.name, key)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *sqliteStore) Len(ctx context.Context) (int, error) {
	qctx, cancel := s.parent.queryCtx(ctx)
	defer cancel()
	var count int
	err := s.parent.db.QueryRowContext(qctx,
		`SELECT COUNT(*) FROM snapshots WHERE store = ?`, s.name).Scan(&count)
	return count, err
}
