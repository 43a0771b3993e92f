package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

// SQLiteStore persists undo snapshots in a SQLite database so history
// survives editor restarts. Snapshots are CBOR-encoded document stores.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a snapshot database at path.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the snapshot table if it doesn't exist.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS undo_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at DATETIME NOT NULL,
		doc BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Push records a snapshot.
func (s *SQLiteStore) Push(doc *scene.Store) error {
	blob, err := cbor.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO undo_snapshots (taken_at, doc) VALUES (?, ?)",
		time.Now().UTC(), blob,
	)
	return err
}

// Pop removes and returns the most recent snapshot.
func (s *SQLiteStore) Pop() (*scene.Store, error) {
	var id int64
	var blob []byte
	row := s.db.QueryRow("SELECT id, doc FROM undo_snapshots ORDER BY id DESC LIMIT 1")
	if err := row.Scan(&id, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmpty
		}
		return nil, err
	}
	doc := scene.NewStore()
	if err := cbor.Unmarshal(blob, doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM undo_snapshots WHERE id = ?", id); err != nil {
		return nil, err
	}
	return doc, nil
}

// Len reports the number of stored snapshots.
func (s *SQLiteStore) Len() int {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM undo_snapshots").Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
