// Package session implements the process-wide session slot: at most one
// authentication token, persisted so it survives restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// TokenKey is the well-known key the token is stored under.
const TokenKey = "token"

// FileStore keeps the session slot in a JSON file, optionally sealed.
// It is safe for concurrent use.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	sealer *sealer
	slots  map[string]string
	logger *zap.Logger
}

// NewFileStore opens (or creates) the session file at path. When key is not
// empty the file content is sealed with it. An unreadable or unopenable file
// is treated as an empty session.
func NewFileStore(path, key string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}

	s := &FileStore{
		path:   path,
		slots:  make(map[string]string),
		logger: logger,
	}
	if key != "" {
		s.sealer = newSealer(key)
	}
	s.load()
	return s, nil
}

// Token returns the stored token, if any.
func (s *FileStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.slots[TokenKey]
	return t, ok && t != ""
}

// SetToken stores token, overwriting any previous one. An empty token clears the slot.
func (s *FileStore) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.slots[TokenKey]
	s.slots[TokenKey] = token
	if err := s.persist(); err != nil {
		if had {
			s.slots[TokenKey] = prev
		} else {
			delete(s.slots, TokenKey)
		}
		return err
	}

	s.logger.Debug("session: token stored")
	return nil
}

// ClearToken empties the slot.
func (s *FileStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.slots[TokenKey]
	if !had {
		return nil
	}
	delete(s.slots, TokenKey)
	if err := s.persist(); err != nil {
		s.slots[TokenKey] = prev
		return err
	}

	s.logger.Debug("session: token cleared")
	return nil
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		s.logger.Warn("session: failed to read file, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return
	}

	if s.sealer != nil {
		raw, err = s.sealer.open(raw)
		if err != nil {
			s.logger.Warn("session: failed to open sealed file, starting empty",
				zap.String("path", s.path),
				zap.Error(err),
			)
			return
		}
	}

	slots := make(map[string]string)
	if err := json.Unmarshal(raw, &slots); err != nil {
		s.logger.Warn("session: corrupt file, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return
	}
	s.slots = slots
}

// persist writes the slots atomically. Caller holds s.mu.
func (s *FileStore) persist() error {
	raw, err := json.Marshal(s.slots)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if s.sealer != nil {
		raw, err = s.sealer.seal(raw)
		if err != nil {
			return fmt.Errorf("session: seal: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// MemoryStore is an in-process session slot, used in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *MemoryStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
