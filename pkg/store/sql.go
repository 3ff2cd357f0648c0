package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/siloscript/pkg/metrics"
	_ "modernc.org/sqlite"
)

// SQL is a persistent Store backed by an embedded sqlite database. Writes
// are immediately durable. A single pooled connection avoids sqlite's
// writer-lock contention under concurrent Put.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens (creating if necessary) the sqlite database at path and
// runs its migration.
func OpenSQL(path string) (*SQL, error) {
	if path == "" {
		return nil, fmt.Errorf("store: sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQL{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS entries (
			created TEXT NOT NULL,
			user TEXT NOT NULL,
			silo TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS entries_scope
			ON entries(user, silo, key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQL) Get(p Partition, key Key) (Value, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "get", "sql")

	var value []byte
	row := s.db.QueryRow(
		`SELECT value FROM entries WHERE user = ? AND silo = ? AND key = ?`,
		p.User, p.Silo, string(key),
	)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			metrics.StoreErrorsTotal.WithLabelValues("sql", "not_found").Inc()
			return nil, ErrNotFound
		}
		metrics.StoreErrorsTotal.WithLabelValues("sql", "io").Inc()
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return Value(value), nil
}

func (s *SQL) Put(p Partition, key Key, value Value) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "put", "sql")

	_, err := s.db.Exec(
		`INSERT INTO entries(created, user, silo, key, value) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user, silo, key) DO UPDATE SET value = excluded.value, created = excluded.created`,
		time.Now().UTC().Format(time.RFC3339Nano), p.User, p.Silo, string(key), []byte(value),
	)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("sql", "io").Inc()
		return fmt.Errorf("store: put: %w", err)
	}
	return nil
}

func (s *SQL) Delete(p Partition, key Key) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.StoreOperationDuration, "delete", "sql")

	res, err := s.db.Exec(
		`DELETE FROM entries WHERE user = ? AND silo = ? AND key = ?`,
		p.User, p.Silo, string(key),
	)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("sql", "io").Inc()
		return fmt.Errorf("store: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("sql", "io").Inc()
		return fmt.Errorf("store: delete: %w", err)
	}
	if n == 0 {
		metrics.StoreErrorsTotal.WithLabelValues("sql", "not_found").Inc()
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
