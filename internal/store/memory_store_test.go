package store

import (
	"errors"
	"testing"

	"exegesisai/pkg/domain"
)

func TestMemoryStoreDuplicateUsername(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveUser(domain.User{ID: "u-1", Username: "Ana"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveUser(domain.User{ID: "u-2", Username: "ana "}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	// Re-saving the same user is an update, not a conflict.
	if err := m.SaveUser(domain.User{ID: "u-1", Username: "Ana", Name: "Ana Clara"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok, _ := m.GetUserByID("u-1")
	if !ok || got.Name != "Ana Clara" {
		t.Fatalf("unexpected user after update: %+v ok=%v", got, ok)
	}
}

func TestMemoryStoreHistoryIsolation(t *testing.T) {
	m := NewMemoryStore()
	if err := m.PrependHistory("u-1", domain.HistoryEntry{ID: "h-1", Query: "Êxodo 3"}); err != nil {
		t.Fatalf("prepend: %v", err)
	}
	if err := m.PrependHistory("u-1", domain.HistoryEntry{ID: "h-2", Query: "João 1:1"}); err != nil {
		t.Fatalf("prepend: %v", err)
	}

	entries, _ := m.ListHistory("u-1")
	if len(entries) != 2 || entries[0].ID != "h-2" {
		t.Fatalf("expected most-recent-first, got %+v", entries)
	}

	// Mutating the returned slice must not affect stored history.
	entries[0].Query = "mutated"
	again, _ := m.ListHistory("u-1")
	if again[0].Query != "João 1:1" {
		t.Fatalf("stored history mutated through returned slice")
	}

	other, _ := m.ListHistory("u-2")
	if len(other) != 0 {
		t.Fatalf("history leaked across users")
	}

	if err := m.ClearHistory("u-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared, _ := m.ListHistory("u-1"); len(cleared) != 0 {
		t.Fatalf("expected empty history after clear")
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  MaRiA "); got != "maria" {
		t.Fatalf("got %q", got)
	}
}
