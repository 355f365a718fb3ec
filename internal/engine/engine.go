// Package engine wraps the two transformation backends behind a single
// Invoker: the in-process filter engine and the external fisheye stitcher
// binary. Each Invoke call performs exactly one transformation and never
// retries.
package engine

import (
	"context"
	"fmt"
)

// Kind selects the transformation backend.
type Kind string

const (
	KindStitch Kind = "stitch"
	KindFilter Kind = "filter"
)

// Request carries one transformation call.
type Request struct {
	Kind      Kind
	Filter    string // canonical filter id, KindFilter only
	Intensity float64
	Input     []byte
}

// Invoker performs a single transformation. progress, if non-nil, receives
// coarse percentage milestones. The caller is responsible for the deadline on
// ctx; expiry is reported as the context error.
type Invoker interface {
	Invoke(ctx context.Context, req Request, progress func(int)) ([]byte, error)
}

// TransformError is any terminal transformation failure: engine failure,
// malformed output, or undecodable input. Cause is safe to show to callers.
type TransformError struct {
	Cause string
}

func (e *TransformError) Error() string { return e.Cause }

// Engine dispatches requests to the filter engine or the stitcher.
type Engine struct {
	stitcher *Stitcher
}

// New creates an engine. stitcher may be nil when stitching is not configured.
func New(stitcher *Stitcher) *Engine {
	return &Engine{stitcher: stitcher}
}

// Invoke implements Invoker.
func (e *Engine) Invoke(ctx context.Context, req Request, progress func(int)) ([]byte, error) {
	switch req.Kind {
	case KindFilter:
		return applyFilter(ctx, req, progress)
	case KindStitch:
		if e.stitcher == nil {
			return nil, &TransformError{Cause: "stitching engine not configured"}
		}
		return e.stitcher.Stitch(ctx, req.Input, progress)
	default:
		return nil, &TransformError{Cause: fmt.Sprintf("unknown transformation kind %q", req.Kind)}
	}
}

func report(progress func(int), pct int) {
	if progress != nil {
		progress(pct)
	}
}

var _ Invoker = (*Engine)(nil)
