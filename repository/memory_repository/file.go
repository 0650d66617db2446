package memory_repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const DefaultFileDir = "data/customers"

// FileStore keeps one <id>.json array of entries per customer.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultFileDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid customer id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *FileStore) load(id string) ([]Entry, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return entries, nil
}

func (s *FileStore) Read(_ context.Context, id string) (string, error) {
	id, err := checkID(id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(id)
	if err != nil {
		return "", err
	}
	return joinEntries(entries), nil
}

func (s *FileStore) Append(_ context.Context, id, content string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(id)
	if err != nil {
		return err
	}
	entries = append(entries, Entry{Timestamp: now().Format(time.RFC3339), Content: content})
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	p, _ := s.path(id)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *FileStore) Close() error { return nil }
