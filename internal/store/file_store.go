package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"exegesisai/pkg/domain"
)

// FileStore persists accounts and history as JSON files under a base
// directory: users.json plus one history_<userID>.json per user. The files
// are plain serialized text and explicitly not a security boundary; the
// whole list is rewritten on each change.
type FileStore struct {
	mu       sync.Mutex
	basePath string
}

type userRecord struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("store base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// SaveUser registers a user, rejecting duplicate usernames.
func (f *FileStore) SaveUser(u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	users, err := f.readUsers()
	if err != nil {
		return err
	}
	key := NormalizeUsername(u.Username)
	for i, existing := range users {
		if NormalizeUsername(existing.Username) == key {
			if existing.ID != u.ID {
				return ErrUserExists
			}
			users[i] = toRecord(u)
			return f.writeJSON(f.usersPath(), users)
		}
	}
	users = append(users, toRecord(u))
	return f.writeJSON(f.usersPath(), users)
}

// GetUserByUsername looks up a user by normalized username.
func (f *FileStore) GetUserByUsername(username string) (domain.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users, err := f.readUsers()
	if err != nil {
		return domain.User{}, false, err
	}
	key := NormalizeUsername(username)
	for _, rec := range users {
		if NormalizeUsername(rec.Username) == key {
			return fromRecord(rec), true, nil
		}
	}
	return domain.User{}, false, nil
}

// GetUserByID looks up a user by ID.
func (f *FileStore) GetUserByID(id string) (domain.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users, err := f.readUsers()
	if err != nil {
		return domain.User{}, false, err
	}
	for _, rec := range users {
		if rec.ID == id {
			return fromRecord(rec), true, nil
		}
	}
	return domain.User{}, false, nil
}

// ListHistory returns the user's history, most recent first.
func (f *FileStore) ListHistory(userID string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readHistory(userID)
}

// PrependHistory reads the user's full list, prepends, and rewrites it.
func (f *FileStore) PrependHistory(userID string, entry domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.readHistory(userID)
	if err != nil {
		return err
	}
	entries = append([]domain.HistoryEntry{entry}, entries...)
	return f.writeJSON(f.historyPath(userID), entries)
}

// ClearHistory removes the user's history file.
func (f *FileStore) ClearHistory(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.historyPath(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (f *FileStore) usersPath() string {
	return filepath.Join(f.basePath, "users.json")
}

func (f *FileStore) historyPath(userID string) string {
	return filepath.Join(f.basePath, "history_"+safeKey(userID)+".json")
}

func (f *FileStore) readUsers() ([]userRecord, error) {
	var users []userRecord
	if err := f.readJSON(f.usersPath(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (f *FileStore) readHistory(userID string) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := f.readJSON(f.historyPath(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *FileStore) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (f *FileStore) writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func toRecord(u domain.User) userRecord {
	return userRecord{User: u, PasswordHash: u.PasswordHash}
}

func fromRecord(rec userRecord) domain.User {
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	return u
}

func safeKey(id string) string {
	id = filepath.Base(strings.TrimSpace(id))
	if id == "" || id == "." || id == string(os.PathSeparator) {
		return "unknown"
	}
	return id
}
