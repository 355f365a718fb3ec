// Package scheduler accepts transformation requests, allocates jobs and runs
// each transform on its own goroutine. Submission never blocks on the
// transform itself.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/meanmdevs/stitching/internal/catalog"
	"github.com/meanmdevs/stitching/internal/engine"
	"github.com/meanmdevs/stitching/internal/metrics"
	"github.com/meanmdevs/stitching/internal/registry"
	"github.com/meanmdevs/stitching/internal/store"
)

// ValidationError rejects a submission before any job is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Params describes one transformation submission.
type Params struct {
	Kind      engine.Kind
	Filter    string // submitted filter id, may be a best_* alias
	Intensity float64
	InputID   string
}

// Scheduler owns the execution path of every job it creates: exactly one
// goroutine per job ever mutates that job's registry entry.
type Scheduler struct {
	registry     *registry.Registry
	artifacts    store.Store
	invoker      engine.Invoker
	timeout      time.Duration
	maxIntensity float64
	slots        chan struct{}
}

// New creates a scheduler. maxConcurrent bounds simultaneous transforms;
// excess jobs stay queued until a slot frees.
func New(reg *registry.Registry, artifacts store.Store, invoker engine.Invoker, timeout time.Duration, maxIntensity float64, maxConcurrent int) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Scheduler{
		registry:     reg,
		artifacts:    artifacts,
		invoker:      invoker,
		timeout:      timeout,
		maxIntensity: maxIntensity,
		slots:        make(chan struct{}, maxConcurrent),
	}
}

// Registry exposes the job table for polling and waiting.
func (s *Scheduler) Registry() *registry.Registry {
	return s.registry
}

// Submit validates the request, creates the job and launches its execution
// goroutine. It returns immediately; invalid parameters never create a job.
func (s *Scheduler) Submit(ctx context.Context, p Params) (registry.Job, error) {
	filter := ""
	switch p.Kind {
	case engine.KindFilter:
		canonical, err := catalog.Validate(p.Filter, p.Intensity, s.maxIntensity)
		if err != nil {
			return registry.Job{}, &ValidationError{Reason: err.Error()}
		}
		filter = canonical
	case engine.KindStitch:
		// No parameters beyond the input artifact.
	default:
		return registry.Job{}, &ValidationError{Reason: fmt.Sprintf("unknown transformation kind %q", p.Kind)}
	}

	if _, err := s.artifacts.Stat(ctx, p.InputID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return registry.Job{}, &ValidationError{Reason: "unknown file id"}
		}
		return registry.Job{}, fmt.Errorf("artifact lookup failed: %w", err)
	}

	job := s.registry.Create(string(p.Kind), filter, p.Intensity, p.InputID)
	metrics.JobsSubmitted.WithLabelValues(string(p.Kind)).Inc()
	log.Printf("[%s] job created: kind=%s filter=%s intensity=%g input=%s", job.ID, p.Kind, filter, p.Intensity, p.InputID)

	go s.run(job.ID, p.Kind, filter, p.Intensity, p.InputID)
	return job, nil
}

// run drives one job from queued to a terminal state. It deliberately uses a
// fresh background context: the job must survive the originating HTTP
// connection.
func (s *Scheduler) run(id string, kind engine.Kind, filter string, intensity float64, inputID string) {
	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.registry.MarkProcessing(id); err != nil {
		log.Printf("[%s] failed to mark processing: %v", id, err)
		return
	}

	input, _, err := s.artifacts.Get(ctx, inputID)
	if err != nil {
		s.fail(id, kind, "input image no longer available")
		return
	}

	started := time.Now()
	out, err := s.invoker.Invoke(ctx, engine.Request{
		Kind:      kind,
		Filter:    filter,
		Intensity: intensity,
		Input:     input,
	}, func(pct int) {
		s.registry.SetProgress(id, clamp(pct, 10, 90))
	})
	if err != nil {
		s.fail(id, kind, failureMessage(err, s.timeout))
		return
	}
	metrics.TransformDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())

	meta := store.Meta{ContentType: "image/jpeg"}
	if cfg, _, derr := image.DecodeConfig(bytes.NewReader(out)); derr == nil {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	art, err := s.artifacts.Put(ctx, store.KindResult, out, meta)
	if err != nil {
		s.fail(id, kind, "failed to store result image")
		return
	}

	if err := s.registry.Complete(id, art.ID, engine.Preview(out)); err != nil {
		log.Printf("[%s] failed to complete job: %v", id, err)
		return
	}
	metrics.JobsCompleted.WithLabelValues(string(kind)).Inc()
	log.Printf("[%s] job complete: result=%s bytes=%d in %s", id, art.ID, len(out), time.Since(started).Round(time.Millisecond))
}

func (s *Scheduler) fail(id string, kind engine.Kind, message string) {
	if err := s.registry.Fail(id, message); err != nil {
		log.Printf("[%s] failed to record error: %v", id, err)
		return
	}
	metrics.JobsFailed.WithLabelValues(string(kind)).Inc()
	log.Printf("[%s] job failed: %s", id, message)
}

// failureMessage maps an invocation error to a caller-safe job message.
func failureMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("transformation timed out after %s", timeout)
	}
	var terr *engine.TransformError
	if errors.As(err, &terr) {
		return terr.Cause
	}
	return "transformation failed"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
