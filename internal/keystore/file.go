package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

const keyFileExt = ".key"

// FileStorage stores one <peer>.key file per peer in a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage returns a FileStorage rooted at dir, creating it if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(peerID string) (string, error) {
	if err := ValidatePeerID(peerID); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, peerID+keyFileExt), nil
}

// Write atomically replaces the value stored for peerID.
func (s *FileStorage) Write(peerID string, value []byte) (err error) {
	path, err := s.path(peerID)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()

	if _, err = tmp.Write(value); err != nil {
		return multierr.Append(fmt.Errorf("write key: %w", err), tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("sync key: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod key file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename key file: %w", err)
	}
	return nil
}

// Read returns the value stored for peerID.
func (s *FileStorage) Read(peerID string) ([]byte, error) {
	path, err := s.path(peerID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	return data, nil
}

// Delete removes the value stored for peerID. Deleting a missing key is not an error.
func (s *FileStorage) Delete(peerID string) error {
	path, err := s.path(peerID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

// Exists reports whether a value is stored for peerID.
func (s *FileStorage) Exists(peerID string) (bool, error) {
	path, err := s.path(peerID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat key: %w", err)
	}
}

// Wipe removes every key file and leftover temp file in the directory.
func (s *FileStorage) Wipe() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list key directory: %w", err)
	}

	var errs error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, keyFileExt) || strings.HasPrefix(name, ".tmp-")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
