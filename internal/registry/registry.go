package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// Transform kinds tracked by the registry.
const (
	KindStitch = "stitch"
	KindFilter = "filter"
)

// ErrNotFound is returned when no job exists for the given id.
var ErrNotFound = errors.New("job not found")

// Job is a tracked asynchronous transformation. Parameters (Kind, Filter,
// Intensity, InputArtifactID) are immutable after creation; only the owning
// execution goroutine mutates the rest.
type Job struct {
	ID               string    `json:"job_id"`
	Kind             string    `json:"kind"`
	Filter           string    `json:"filter,omitempty"`
	Intensity        float64   `json:"intensity,omitempty"`
	InputArtifactID  string    `json:"input_artifact_id"`
	State            State     `json:"status"`
	Progress         int       `json:"progress"`
	ResultArtifactID string    `json:"result_artifact_id,omitempty"`
	Preview          string    `json:"preview,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Registry is the process-wide job table. Reads return value snapshots, so a
// concurrent poller never observes a partially written record.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	done map[string]chan struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
		done: make(map[string]chan struct{}),
	}
}

// Create adds a queued job with a fresh uuid and returns its snapshot.
func (r *Registry) Create(kind, filter string, intensity float64, inputID string) Job {
	now := time.Now()
	job := &Job{
		ID:              uuid.NewString(),
		Kind:            kind,
		Filter:          filter,
		Intensity:       intensity,
		InputArtifactID: inputID,
		State:           StateQueued,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.done[job.ID] = make(chan struct{})
	r.mu.Unlock()

	return *job
}

// Get returns a snapshot of the job, or ErrNotFound.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Count returns the number of jobs ever created.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// MarkProcessing moves a queued job to processing.
func (r *Registry) MarkProcessing(id string) error {
	return r.update(id, func(j *Job) {
		j.State = StateProcessing
		j.Progress = 10
	})
}

// SetProgress advances the progress percentage. Regressions are ignored so
// pollers always observe a monotone value.
func (r *Registry) SetProgress(id string, progress int) error {
	return r.update(id, func(j *Job) {
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

// Complete marks the job terminal with a result artifact.
func (r *Registry) Complete(id, resultID, preview string) error {
	return r.update(id, func(j *Job) {
		j.State = StateComplete
		j.Progress = 100
		j.ResultArtifactID = resultID
		j.Preview = preview
	})
}

// Fail marks the job terminal with a caller-safe error message.
func (r *Registry) Fail(id, message string) error {
	return r.update(id, func(j *Job) {
		j.State = StateError
		j.Error = message
	})
}

// update applies a mutation atomically. Jobs already in a terminal state are
// frozen; further mutations are dropped.
func (r *Registry) update(id string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.State.Terminal() {
		return nil
	}

	fn(job)
	job.UpdatedAt = time.Now()

	if job.State.Terminal() {
		if ch, ok := r.done[id]; ok {
			close(ch)
		}
	}
	return nil
}

// Wait blocks until the job reaches a terminal state or ctx is done, then
// returns the final snapshot.
func (r *Registry) Wait(ctx context.Context, id string) (Job, error) {
	r.mu.RLock()
	ch, ok := r.done[id]
	r.mu.RUnlock()
	if !ok {
		return Job{}, ErrNotFound
	}

	select {
	case <-ch:
		return r.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
