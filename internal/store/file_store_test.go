package store

import (
	"errors"
	"testing"
	"time"

	"exegesisai/pkg/domain"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return fs, dir
}

func TestFileStoreSaveAndGetUser(t *testing.T) {
	fs, _ := newTestFileStore(t)
	u := domain.User{ID: "u-1", Username: "Maria", Name: "Maria", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	if err := fs.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	got, ok, err := fs.GetUserByUsername("  MARIA ")
	if err != nil || !ok {
		t.Fatalf("get by username: ok=%v err=%v", ok, err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}

	got, ok, err = fs.GetUserByID("u-1")
	if err != nil || !ok {
		t.Fatalf("get by id: ok=%v err=%v", ok, err)
	}
	if got.Username != "Maria" {
		t.Fatalf("unexpected username %q", got.Username)
	}

	if _, ok, _ := fs.GetUserByUsername("nobody"); ok {
		t.Fatalf("expected miss for unknown username")
	}
}

func TestFileStoreRejectsDuplicateUsername(t *testing.T) {
	fs, _ := newTestFileStore(t)
	if err := fs.SaveUser(domain.User{ID: "u-1", Username: "maria"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	err := fs.SaveUser(domain.User{ID: "u-2", Username: "MARIA"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestFileStoreUpdateSameUser(t *testing.T) {
	fs, _ := newTestFileStore(t)
	if err := fs.SaveUser(domain.User{ID: "u-1", Username: "maria", Name: "Maria"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := fs.SaveUser(domain.User{ID: "u-1", Username: "maria", Name: "Maria Silva"}); err != nil {
		t.Fatalf("update same user: %v", err)
	}
	got, _, _ := fs.GetUserByID("u-1")
	if got.Name != "Maria Silva" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestFileStoreHistoryOrderAndClear(t *testing.T) {
	fs, _ := newTestFileStore(t)
	for i, q := range []string{"Gênesis 1:1", "João 3:16", "Salmo 23"} {
		entry := domain.HistoryEntry{
			ID:        NormalizeUsername(q),
			Query:     q,
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := fs.PrependHistory("u-1", entry); err != nil {
			t.Fatalf("prepend %q: %v", q, err)
		}
	}

	entries, err := fs.ListHistory("u-1")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Query != "Salmo 23" || entries[2].Query != "Gênesis 1:1" {
		t.Fatalf("expected most-recent-first order, got %q .. %q", entries[0].Query, entries[2].Query)
	}

	other, err := fs.ListHistory("u-2")
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("history must be scoped per user, got %d entries", len(other))
	}

	if err := fs.ClearHistory("u-1"); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	entries, err = fs.ListHistory("u-1")
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(entries))
	}
	// Clearing twice is a no-op.
	if err := fs.ClearHistory("u-1"); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	fs, dir := newTestFileStore(t)
	if err := fs.SaveUser(domain.User{ID: "u-1", Username: "maria", PasswordHash: "hash"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := fs.PrependHistory("u-1", domain.HistoryEntry{ID: "h-1", Query: "João 3:16"}); err != nil {
		t.Fatalf("prepend: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.GetUserByUsername("maria")
	if err != nil || !ok {
		t.Fatalf("user lost after reopen: ok=%v err=%v", ok, err)
	}
	if got.PasswordHash != "hash" {
		t.Fatalf("password hash lost after reopen")
	}
	entries, err := reopened.ListHistory("u-1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("history lost after reopen: len=%d err=%v", len(entries), err)
	}
}

func TestFileStoreRequiresBasePath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for blank base path")
	}
}
