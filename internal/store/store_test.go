package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	data := []byte("jpeg-bytes")
	art, err := s.Put(ctx, KindOriginal, data, Meta{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Width:       1200,
		Height:      600,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if art.ID == "" {
		t.Fatal("expected a generated id")
	}
	if art.Kind != KindOriginal || art.Width != 1200 || art.Height != 600 || art.Size != int64(len(data)) {
		t.Fatalf("unexpected artifact record: %+v", art)
	}

	got, gotArt, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
	if gotArt.ID != art.ID {
		t.Fatalf("expected id %s, got %s", art.ID, gotArt.ID)
	}
}

func TestMemoryStore_DistinctIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, _ := s.Put(ctx, KindOriginal, []byte("a"), Meta{})
	b, _ := s.Put(ctx, KindOriginal, []byte("b"), Meta{})
	if a.ID == b.ID {
		t.Fatalf("two puts returned the same id %s", a.ID)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()

	if _, _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Stat(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	art, _ := s.Put(ctx, KindResult, []byte("x"), Meta{})
	if err := s.Delete(ctx, art.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, err := s.Get(ctx, art.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, art.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	art, _ := s.Put(ctx, KindOriginal, data, Meta{})
	data[0] = 'X'

	got, _, _ := s.Get(ctx, art.ID)
	if string(got) != "original" {
		t.Fatalf("stored bytes were mutated: %q", got)
	}
}

func TestFilesystemStore_RoundTrip(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}
	ctx := context.Background()

	data := []byte("stitched-bytes")
	art, err := s.Put(ctx, KindResult, data, Meta{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, gotArt, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
	if gotArt.ContentType != "image/jpeg" {
		t.Fatalf("unexpected content type %q", gotArt.ContentType)
	}

	if err := s.Delete(ctx, art.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, _, err := s.Get(ctx, art.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFilesystemStore_PathTraversal(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	if _, err := s.path("../../etc/passwd"); err == nil {
		t.Fatal("expected traversal id to be rejected")
	}
}
