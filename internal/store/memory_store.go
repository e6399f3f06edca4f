package store

import (
	"sync"

	"exegesisai/pkg/domain"
)

// MemoryStore keeps accounts and history in-process. Used by tests and
// single-run deployments that do not want files on disk.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User // key: user ID
	username map[string]string      // normalized username -> user ID
	history  map[string][]domain.HistoryEntry
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		username: make(map[string]string),
		history:  make(map[string][]domain.HistoryEntry),
	}
}

// SaveUser registers a user. Fails when the normalized username is taken
// by a different user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeUsername(u.Username)
	if existing, ok := m.username[key]; ok && existing != u.ID {
		return ErrUserExists
	}
	m.users[u.ID] = u
	m.username[key] = u.ID
	return nil
}

// GetUserByUsername looks up a user by normalized username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.username[NormalizeUsername(username)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID looks up a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListHistory returns the user's history, most recent first.
func (m *MemoryStore) ListHistory(userID string) ([]domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[userID]
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// PrependHistory adds an entry to the front of the user's history.
func (m *MemoryStore) PrependHistory(userID string, entry domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = append([]domain.HistoryEntry{entry}, m.history[userID]...)
	return nil
}

// ClearHistory removes all of the user's history.
func (m *MemoryStore) ClearHistory(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, userID)
	return nil
}
