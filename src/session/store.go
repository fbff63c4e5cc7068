package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Persisted keys. Values are stored as strings, last write wins.
const (
	KeyToken          = "token"
	KeyUser           = "user"
	KeyCompanyID      = "companyId"
	KeyUserRole       = "userRole"
	KeyExpirationTime = "expirationTime"
	KeyDarkMode       = "darkMode"
)

// Store is the file-backed key/value session state shared by the
// client facade and the CLI. Every Set and Delete is flushed to disk
// immediately.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewStore loads the session file at path, or starts empty when the
// file does not exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flush()
}

// Clear wipes every key. Called when the session expires or on logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return s.flush()
}

// Token returns the stored bearer token, empty when logged out.
func (s *Store) Token() string {
	v, _ := s.Get(KeyToken)
	return v
}

// CompanyID returns the active company, empty when none selected.
func (s *Store) CompanyID() string {
	v, _ := s.Get(KeyCompanyID)
	return v
}

// Role returns the stored role for the active company.
func (s *Store) Role() (string, bool) {
	return s.Get(KeyUserRole)
}

// ExpirationTime returns the stored expiry in epoch milliseconds.
// ok is false when the key is absent or not a number.
func (s *Store) ExpirationTime() (int64, bool) {
	v, found := s.Get(KeyExpirationTime)
	if !found {
		return 0, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// SetExpirationTime stores an epoch-milliseconds expiry.
func (s *Store) SetExpirationTime(ms int64) error {
	return s.Set(KeyExpirationTime, strconv.FormatInt(ms, 10))
}

// flush writes to a temp file in the same directory and renames it
// over the session file, so an interrupted write never truncates it.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
