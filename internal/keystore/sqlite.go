package keystore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage stores shared keys in the shared_keys table of a SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens (or creates) the database at path.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initTables() error {
	const createSharedKeys = `
	CREATE TABLE IF NOT EXISTS shared_keys (
		peer_id TEXT PRIMARY KEY,
		key BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(createSharedKeys); err != nil {
		return fmt.Errorf("failed to create shared_keys table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Write(peerID string, value []byte) error {
	const query = `
	INSERT OR REPLACE INTO shared_keys (peer_id, key, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := s.db.Exec(query, peerID, value); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Read(peerID string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT key FROM shared_keys WHERE peer_id = ?`, peerID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	return value, nil
}

func (s *SQLiteStorage) Delete(peerID string) error {
	if _, err := s.db.Exec(`DELETE FROM shared_keys WHERE peer_id = ?`, peerID); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Exists(peerID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM shared_keys WHERE peer_id = ?`, peerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStorage) Wipe() error {
	if _, err := s.db.Exec(`DELETE FROM shared_keys`); err != nil {
		return fmt.Errorf("failed to wipe keys: %w", err)
	}
	return nil
}
