package bank

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Store
// =============================================================================

// Store persists the item bank and the response history in SQLite. The
// engine itself never touches the store; callers load snapshots from it
// and publish them through a Provider.
type Store struct {
	db *sql.DB
}

// StoreConfig configures the SQLite connection.
type StoreConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	BusyTimeout time.Duration
}

// DefaultStoreConfig returns connection defaults suitable for a single
// service process.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MaxOpen:     10,
		MaxIdle:     5,
		MaxLifetime: time.Hour,
		BusyTimeout: 30 * time.Second,
	}
}

// Open opens (creating if needed) an item-bank database at path.
func Open(path string, config StoreConfig) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=1",
		path, int(config.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open bank db: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpen)
	db.SetMaxIdleConns(config.MaxIdle)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping bank db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS items (
	id             TEXT PRIMARY KEY,
	a              REAL,
	b              REAL,
	domain         TEXT NOT NULL,
	anchor         INTEGER NOT NULL DEFAULT 0,
	response_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS responses (
	examinee_id TEXT NOT NULL,
	item_id     TEXT NOT NULL REFERENCES items(id),
	session_id  TEXT NOT NULL,
	correct     INTEGER NOT NULL,
	answered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_responses_examinee ON responses(examinee_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate bank db: %w", err)
	}
	return nil
}

// UpsertItems writes items (including uncalibrated ones) in one
// transaction. A calibration refresh uses this, then reloads a snapshot.
func (s *Store) UpsertItems(ctx context.Context, items []irt.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO items (id, a, b, domain, anchor, response_count)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	a = excluded.a,
	b = excluded.b,
	domain = excluded.domain,
	anchor = excluded.anchor,
	response_count = excluded.response_count`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		a := nullableParam(it.A)
		b := nullableParam(it.B)
		if _, err := stmt.ExecContext(ctx, it.ItemID, a, b, it.DomainName, it.Anchor, it.ResponseCount); err != nil {
			return fmt.Errorf("upsert item %s: %w", it.ItemID, err)
		}
	}
	return tx.Commit()
}

// LoadPool reads every item into a fresh immutable snapshot. Items with
// NULL parameters come back as NaN, which the calibration predicate
// rejects at selection time.
func (s *Store) LoadPool(ctx context.Context) (*Pool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, a, b, domain, anchor, response_count FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	var items []irt.Item
	for rows.Next() {
		var it irt.Item
		var a, b sql.NullFloat64
		if err := rows.Scan(&it.ItemID, &a, &b, &it.DomainName, &it.Anchor, &it.ResponseCount); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.A = nullableValue(a)
		it.B = nullableValue(b)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return NewPool(items), nil
}

// RecordResponse appends one response to the durable history.
func (s *Store) RecordResponse(ctx context.Context, examineeID, sessionID, itemID string, correct bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (examinee_id, item_id, session_id, correct) VALUES (?, ?, ?, ?)`,
		examineeID, itemID, sessionID, correct)
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	return nil
}

// SeenItemIDs returns the distinct items an examinee has answered in any
// session, for cross-session exposure suppression.
func (s *Store) SeenItemIDs(ctx context.Context, examineeID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT item_id FROM responses WHERE examinee_id = ?`, examineeID)
	if err != nil {
		return nil, fmt.Errorf("load seen items: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen item: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

func nullableParam(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullableValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
