package kvcache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/utils"
)

var validKey = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// FS stores one JSON file per key under dir and keeps a hot copy in RAM
// after the first read or write.
type FS struct {
	dir string
	mu  sync.RWMutex
	hot map[string][]byte
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FS{dir: dir, hot: make(map[string][]byte)}, nil
}

func (s *FS) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FS) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	if v, ok := s.hot[key]; ok {
		s.mu.RUnlock()
		return append([]byte(nil), v...), true, nil
	}
	s.mu.RUnlock()

	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	s.mu.Lock()
	s.hot[key] = data
	s.mu.Unlock()
	return append([]byte(nil), data...), true, nil
}

// Set writes through to disk atomically, then refreshes the hot copy.
func (s *FS) Set(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	logger.Debug("writing cache entry %s (%d bytes)", p, len(value))

	if err := utils.WriteFileAtomic(p+".tmp", p, bytes.NewReader(value)); err != nil {
		return err
	}

	s.mu.Lock()
	s.hot[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *FS) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.hot, key)
	s.mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FS) Close() error { return nil }

// dropHot forgets the RAM copies so the next Get reads from disk.
func (s *FS) dropHot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hot = make(map[string][]byte)
}
