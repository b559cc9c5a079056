package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists the single session marker. Load returns an empty string
// when no marker is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, marker string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the marker in memory.
type MemoryStore struct {
	mu     sync.Mutex
	marker string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker, nil
}

func (s *MemoryStore) Save(_ context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = marker
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = ""
	return nil
}

// FileStore keeps the marker in a file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file is created on Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the marker file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(_ context.Context, marker string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(marker+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session marker: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session marker: %w", err)
	}
	return nil
}
