package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FilesystemStore writes artifact bytes to baseDir, one file per id. The
// metadata index lives in memory, so records (not bytes) are lost on restart.
type FilesystemStore struct {
	baseDir string

	mu   sync.RWMutex
	meta map[string]Artifact
}

// NewFilesystemStore creates the base directory if needed.
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FilesystemStore{
		baseDir: baseDir,
		meta:    make(map[string]Artifact),
	}, nil
}

// path resolves an id inside baseDir, rejecting directory traversal.
func (s *FilesystemStore) path(id string) (string, error) {
	p := filepath.Join(s.baseDir, id)
	if !filepath.HasPrefix(filepath.Clean(p), filepath.Clean(s.baseDir)) {
		return "", fmt.Errorf("invalid id: path traversal detected")
	}
	return p, nil
}

// Put writes data to a file named by a fresh uuid.
func (s *FilesystemStore) Put(ctx context.Context, kind string, data []byte, meta Meta) (Artifact, error) {
	art := Artifact{
		ID:          uuid.NewString(),
		Kind:        kind,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Width:       meta.Width,
		Height:      meta.Height,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	}

	p, err := s.path(art.ID)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("failed to write artifact: %w", err)
	}

	s.mu.Lock()
	s.meta[art.ID] = art
	s.mu.Unlock()

	return art, nil
}

// Get reads the artifact bytes back from disk.
func (s *FilesystemStore) Get(ctx context.Context, id string) ([]byte, Artifact, error) {
	s.mu.RLock()
	art, ok := s.meta[id]
	s.mu.RUnlock()
	if !ok {
		return nil, Artifact{}, ErrNotFound
	}

	p, err := s.path(id)
	if err != nil {
		return nil, Artifact{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Artifact{}, ErrNotFound
		}
		return nil, Artifact{}, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, art, nil
}

// Stat returns the artifact record without reading the file.
func (s *FilesystemStore) Stat(ctx context.Context, id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.meta[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return art, nil
}

// Delete removes the file and its record.
func (s *FilesystemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.meta[id]
	delete(s.meta, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

var _ Store = (*FilesystemStore)(nil)
