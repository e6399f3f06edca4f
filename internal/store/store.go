package store

import (
	"errors"
	"strings"

	"exegesisai/pkg/domain"
)

// ErrUserExists is returned when a username is already registered.
var ErrUserExists = errors.New("username already registered")

// Store persists user accounts and per-user query history. Usernames are
// keyed case-insensitively. History lists are whole-list read-modify-write:
// entries are prepended (most-recent-first), never mutated, and removed only
// by clearing.
type Store interface {
	SaveUser(domain.User) error
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	ListHistory(userID string) ([]domain.HistoryEntry, error)
	PrependHistory(userID string, entry domain.HistoryEntry) error
	ClearHistory(userID string) error
}

// NormalizeUsername lowercases and trims a username for keying.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
