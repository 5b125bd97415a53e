package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Persisted keys. They mirror the browser local storage layout.
const (
	KeyToken       = "authToken"
	KeyUser        = "user"
	KeyChatHistory = "coursecompass_chat_history"
	KeyTheme       = "themeMode"
)

// Storage is a small persistent key/value store holding JSON values.
type Storage interface {
	Get(key string) (json.RawMessage, bool, error)
	Set(key string, value json.RawMessage) error
	Remove(keys ...string) error
}

// FileStorage keeps every key in one JSON document on disk. Writes replace the
// file atomically. A document that cannot be decoded is moved aside to
// path+".corrupt" and treated as empty.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// FileOption configures a FileStorage.
type FileOption func(*FileStorage)

// WithStorageLogger sets the logger used to report a quarantined state file.
func WithStorageLogger(logger *slog.Logger) FileOption {
	return func(s *FileStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStorage returns a FileStorage rooted at path. The file is created on first write.
func NewFileStorage(path string, opts ...FileOption) *FileStorage {
	s := &FileStorage{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path reports the backing file.
func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Get(key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (s *FileStorage) Set(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return s.save(doc)
}

func (s *FileStorage) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(doc, key)
	}
	return s.save(doc)
}

func (s *FileStorage) load() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return s.quarantine(err)
	}
	return doc, nil
}

func (s *FileStorage) quarantine(decodeErr error) (map[string]json.RawMessage, error) {
	target := s.path + ".corrupt"
	if err := os.Rename(s.path, target); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", s.path, errors.Join(decodeErr, err))
	}
	s.logger.Warn("state file unreadable, starting fresh", "path", s.path, "moved_to", target, "error", decodeErr)
	return make(map[string]json.RawMessage), nil
}

func (s *FileStorage) save(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]json.RawMessage)}
}

func (m *MemoryStorage) Get(key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return append(json.RawMessage(nil), v...), ok, nil
}

func (m *MemoryStorage) Set(key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *MemoryStorage) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func getJSON(s Storage, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(s Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, raw)
}
