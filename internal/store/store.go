package store

import (
	"context"
	"errors"
	"time"
)

// Artifact kinds.
const (
	KindOriginal = "original"
	KindResult   = "result"
)

// ErrNotFound is returned when no artifact exists for the given id.
var ErrNotFound = errors.New("artifact not found")

// Artifact describes a stored image.
type Artifact struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Meta carries caller-supplied metadata for a new artifact.
type Meta struct {
	Filename    string
	ContentType string
	Width       int
	Height      int
}

// Store provides id-addressed access to artifact bytes. Ids are assigned by
// the store and are never caller-supplied. Stored bytes are immutable: there
// is no update operation, only Put, Get and Delete.
type Store interface {
	// Put stores data under a fresh unique id and returns the artifact record.
	Put(ctx context.Context, kind string, data []byte, meta Meta) (Artifact, error)

	// Get returns the stored bytes and record, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, Artifact, error)

	// Stat returns the artifact record without loading its bytes.
	Stat(ctx context.Context, id string) (Artifact, error)

	// Delete removes the artifact. Subsequent Get returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
