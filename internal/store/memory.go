package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps artifact bytes in process memory. Contents do not survive
// a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	bytes map[string][]byte
	meta  map[string]Artifact
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bytes: make(map[string][]byte),
		meta:  make(map[string]Artifact),
	}
}

// Put stores a copy of data under a fresh uuid.
func (s *MemoryStore) Put(ctx context.Context, kind string, data []byte, meta Meta) (Artifact, error) {
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

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.bytes[art.ID] = buf
	s.meta[art.ID] = art
	s.mu.Unlock()

	return art, nil
}

// Get returns the stored bytes. Callers must treat the returned slice as
// read-only.
func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.bytes[id]
	if !ok {
		return nil, Artifact{}, ErrNotFound
	}
	return data, s.meta[id], nil
}

// Stat returns the artifact record without its bytes.
func (s *MemoryStore) Stat(ctx context.Context, id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.meta[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return art, nil
}

// Delete removes the artifact if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bytes[id]; !ok {
		return ErrNotFound
	}
	delete(s.bytes, id)
	delete(s.meta, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
