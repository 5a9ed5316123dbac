package sorter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

func TestPlace(t *testing.T) {
	src := t.TempDir()
	results := filepath.Join(t.TempDir(), "results")

	name := "a[b][player1].txt"
	path := filepath.Join(src, name)
	if err := os.WriteFile(path, []byte("cookie"), 0o600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	s := New(src, results)
	ok, err := s.Place(name, "VIP")
	if err != nil || !ok {
		t.Fatalf("Place failed: ok=%v err=%v", ok, err)
	}

	dst := filepath.Join(results, "VIP", name)
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("expected copy: %v", err)
	}
	if string(data) != "cookie" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("expected mtime %v, got %v", mtime, info.ModTime())
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	// Source is copied, not moved.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source should still exist: %v", err)
	}
}

func TestPlace_MissingSource(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results")
	s := New(t.TempDir(), results)

	ok, err := s.Place("ghost.txt", domain.CategoryFailedLookup)
	if err != nil || ok {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(results, "Failed_Lookup")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("folder should not be created for a missing source")
	}
}

func TestPlace_FlagCategory(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	if _, err := s.Place("x.txt", domain.CategoryCurrentlyOnline); !errors.Is(err, ErrFlagCategory) {
		t.Errorf("expected ErrFlagCategory, got %v", err)
	}
}

func TestEnsureRoot(t *testing.T) {
	results := filepath.Join(t.TempDir(), "nested", "results")
	s := New(t.TempDir(), results)

	if err := s.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot failed: %v", err)
	}
	if info, err := os.Stat(s.ResultsDir()); err != nil || !info.IsDir() {
		t.Errorf("expected %s to be a directory: %v", results, err)
	}
}
