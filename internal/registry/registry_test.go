package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCreateAndGet(t *testing.T) {
	r := New()

	job := r.Create(KindFilter, "luxury", 1.2, "file-1")
	if job.ID == "" {
		t.Fatal("expected a generated job id")
	}
	if job.State != StateQueued {
		t.Fatalf("expected queued, got %s", job.State)
	}

	got, err := r.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Filter != "luxury" || got.Intensity != 1.2 || got.InputArtifactID != "file-1" {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestGet_Snapshot(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	snap, _ := r.Get(job.ID)
	snap.State = StateError
	snap.Error = "mutated copy"

	got, _ := r.Get(job.ID)
	if got.State != StateQueued || got.Error != "" {
		t.Fatalf("mutating a snapshot leaked into the registry: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	r := New()
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProgress_Monotone(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	r.MarkProcessing(job.ID)
	r.SetProgress(job.ID, 50)
	r.SetProgress(job.ID, 30)

	got, _ := r.Get(job.ID)
	if got.Progress != 50 {
		t.Fatalf("progress regressed: got %d, want 50", got.Progress)
	}
}

func TestComplete(t *testing.T) {
	r := New()
	job := r.Create(KindStitch, "", 0, "file-1")

	r.MarkProcessing(job.ID)
	r.Complete(job.ID, "result-1", "data:image/jpeg;base64,xx")

	got, _ := r.Get(job.ID)
	if got.State != StateComplete {
		t.Fatalf("expected complete, got %s", got.State)
	}
	if got.Progress != 100 || got.ResultArtifactID != "result-1" || got.Error != "" {
		t.Fatalf("unexpected terminal job: %+v", got)
	}
}

func TestFail(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	r.MarkProcessing(job.ID)
	r.Fail(job.ID, "engine exploded")

	got, _ := r.Get(job.ID)
	if got.State != StateError {
		t.Fatalf("expected error state, got %s", got.State)
	}
	if got.Error == "" || got.ResultArtifactID != "" {
		t.Fatalf("unexpected terminal job: %+v", got)
	}
}

func TestTerminalStateIsFrozen(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	r.MarkProcessing(job.ID)
	r.Fail(job.ID, "first failure")

	r.Complete(job.ID, "result-1", "")
	r.SetProgress(job.ID, 99)
	r.MarkProcessing(job.ID)

	got, _ := r.Get(job.ID)
	if got.State != StateError || got.Error != "first failure" || got.ResultArtifactID != "" {
		t.Fatalf("terminal job was mutated: %+v", got)
	}
}

func TestWait(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	go func() {
		r.MarkProcessing(job.ID)
		r.Complete(job.ID, "result-1", "")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := r.Wait(ctx, job.ID)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if got.State != StateComplete {
		t.Fatalf("expected complete, got %s", got.State)
	}
}

func TestWait_NotFound(t *testing.T) {
	r := New()
	if _, err := r.Wait(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentPollers(t *testing.T) {
	r := New()
	job := r.Create(KindFilter, "luxury", 1, "file-1")

	const readers = 20
	var wg sync.WaitGroup

	// Single writer drives the job; readers must never observe a regression.
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.MarkProcessing(job.ID)
		for p := 20; p <= 90; p += 10 {
			r.SetProgress(job.ID, p)
			time.Sleep(time.Millisecond)
		}
		r.Complete(job.ID, "result-1", "")
	}()

	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			last := -1
			sawTerminal := false
			for j := 0; j < 200; j++ {
				got, err := r.Get(job.ID)
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				if got.Progress < last {
					t.Errorf("progress regressed from %d to %d", last, got.Progress)
					return
				}
				last = got.Progress
				if sawTerminal && !got.State.Terminal() {
					t.Errorf("job left terminal state: %s", got.State)
					return
				}
				if got.State.Terminal() {
					sawTerminal = true
				}
			}
		}()
	}

	wg.Wait()
}
