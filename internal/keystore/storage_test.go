package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()

	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "keys"))
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}

	db, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "keys.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sealed, err := NewSealedStorage(NewMemoryStorage(), []byte("device secret"))
	if err != nil {
		t.Fatalf("NewSealedStorage() error = %v", err)
	}

	return map[string]Storage{
		"file":   fs,
		"sqlite": db,
		"memory": NewMemoryStorage(),
		"sealed": sealed,
	}
}

func TestStorage_Contract(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Read("peer1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Read() on empty storage error = %v, want ErrNotFound", err)
			}
			if ok, err := s.Exists("peer1"); err != nil || ok {
				t.Fatalf("Exists() = %v, %v; want false, nil", ok, err)
			}

			if err := s.Write("peer1", []byte("first")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := s.Write("peer1", []byte("second")); err != nil {
				t.Fatalf("Write() overwrite error = %v", err)
			}

			got, err := s.Read("peer1")
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !bytes.Equal(got, []byte("second")) {
				t.Errorf("Read() = %q, want %q", got, "second")
			}
			if ok, err := s.Exists("peer1"); err != nil || !ok {
				t.Errorf("Exists() = %v, %v; want true, nil", ok, err)
			}

			if err := s.Delete("peer1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Read("peer1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Read() after delete error = %v, want ErrNotFound", err)
			}
			if err := s.Delete("peer1"); err != nil {
				t.Errorf("Delete() of missing key error = %v", err)
			}
		})
	}
}

func TestStorage_Wipe(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			w, ok := s.(Wiper)
			if !ok {
				t.Fatalf("%T does not implement Wiper", s)
			}
			for _, id := range []string{"a", "b", "c"} {
				if err := s.Write(id, []byte(id)); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Wipe(); err != nil {
				t.Fatalf("Wipe() error = %v", err)
			}
			for _, id := range []string{"a", "b", "c"} {
				if ok, _ := s.Exists(id); ok {
					t.Errorf("%s still exists after Wipe()", id)
				}
			}
		})
	}
}

func TestFileStorage_InvalidPeerID(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"", ".", "..", "../escape", "a/b", "with space"} {
		t.Run(id, func(t *testing.T) {
			if err := s.Write(id, []byte("x")); !errors.Is(err, ErrInvalidPeerID) {
				t.Errorf("Write(%q) error = %v, want ErrInvalidPeerID", id, err)
			}
			if _, err := s.Read(id); !errors.Is(err, ErrInvalidPeerID) {
				t.Errorf("Read(%q) error = %v, want ErrInvalidPeerID", id, err)
			}
		})
	}
}

func TestFileStorage_Layout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write("3f2a-peer", []byte("secret")); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "3f2a-peer.key"))
	if err != nil {
		t.Fatalf("key file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no leftover temp files)", len(entries))
	}
}

func TestFileStorage_WipeKeepsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("peer1", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := s.Wipe(); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestSQLiteStorage_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")

	s, err := OpenSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write("peer1", []byte("secret")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Read("peer1")
	if err != nil {
		t.Fatalf("Read() after reopen error = %v", err)
	}
	if string(got) != "secret" {
		t.Errorf("Read() = %q, want %q", got, "secret")
	}
}

func TestSealedStorage_EncryptsAtRest(t *testing.T) {
	inner := NewMemoryStorage()
	s, err := NewSealedStorage(inner, []byte("device secret"))
	if err != nil {
		t.Fatal(err)
	}

	secret := bytes.Repeat([]byte{0x42}, 32)
	if err := s.Write("peer1", secret); err != nil {
		t.Fatal(err)
	}

	raw, err := inner.Read("peer1")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, secret) {
		t.Error("inner storage holds the plaintext secret")
	}

	// a value moved to another peer's slot must not open
	if err := inner.Write("peer2", raw); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("peer2"); err == nil {
		t.Error("Read() of a value sealed for another peer succeeded")
	}
}

func TestSealedStorage_WrongDeviceSecret(t *testing.T) {
	inner := NewMemoryStorage()
	a, _ := NewSealedStorage(inner, []byte("device A"))
	b, _ := NewSealedStorage(inner, []byte("device B"))

	if err := a.Write("peer1", []byte("secret")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Read("peer1"); err == nil {
		t.Error("Read() with another device secret succeeded")
	}
}

type plainStorage struct{ Storage }

func TestSealedStorage_WipeUnsupported(t *testing.T) {
	s, err := NewSealedStorage(plainStorage{NewMemoryStorage()}, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Wipe(); !errors.Is(err, ErrWipeUnsupported) {
		t.Errorf("Wipe() error = %v, want ErrWipeUnsupported", err)
	}
}
