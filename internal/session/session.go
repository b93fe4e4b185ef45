// Package session owns the upload lifecycle: one dataset installed
// atomically per completed parse, superseded cleanly when a new upload
// starts before the previous one finishes.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/balefleet/balewatch/internal/ingest"
	"github.com/balefleet/balewatch/internal/log"
	"github.com/balefleet/balewatch/internal/normalize"
	"github.com/balefleet/balewatch/internal/types"
)

// ErrSuperseded reports that a newer upload started while this parse
// was in flight; its partial results were discarded.
var ErrSuperseded = errors.New("upload superseded by a newer one")

// Manager holds the current dataset reference. The dataset itself is
// written exactly once per upload and read many times; the mutex only
// guards the reference swap and the supersession bookkeeping.
type Manager struct {
	mu         sync.Mutex
	current    *types.Dataset
	generation uint64
	cancel     context.CancelFunc
}

// NewManager starts in the awaiting-upload state.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the installed dataset, or nil while awaiting upload.
func (m *Manager) Current() *types.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// AwaitingUpload reports whether no dataset has been installed yet.
func (m *Manager) AwaitingUpload() bool {
	return m.Current() == nil
}

// begin registers a new upload attempt, cancelling any parse still in
// flight so its partial rows are never installed.
func (m *Manager) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	return ctx, cancel, m.generation
}

// install swaps the dataset reference iff this attempt is still the
// newest one. The swap happens only after a parse fully completed.
func (m *Manager) install(generation uint64, ds *types.Dataset) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return false
	}
	m.current = ds
	m.cancel = nil
	return true
}

// finish clears the in-flight marker for a failed attempt, leaving the
// previously installed dataset untouched.
func (m *Manager) finish(generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation == m.generation {
		m.cancel = nil
	}
}

// UploadOptions configure one upload attempt.
type UploadOptions struct {
	// Shape forces the CSV shape; empty autodetects.
	Shape types.Shape
	// Locations optionally maps device IDs to configured locations for
	// wide rows missing one.
	Locations map[string]string
	// BatchSize and TotalBytes tune the streaming parse.
	BatchSize  int
	TotalBytes int64
	// OnProgress, when set, receives coarse progress at batch
	// boundaries.
	OnProgress func(ingest.Progress)
}

// Upload runs the full pipeline for one attempt: streaming parse,
// normalization, atomic install. On any error the previous dataset
// stays installed and the manager is ready for the next attempt. A
// superseded attempt returns ErrSuperseded (or the context error it
// was cancelled with).
func (m *Manager) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*types.Dataset, error) {
	ctx, cancel, generation := m.begin(ctx)
	defer cancel()

	var rows []ingest.RawRow
	shape, err := ingest.Stream(ctx, r, ingest.StreamOptions{
		Shape:      opts.Shape,
		BatchSize:  opts.BatchSize,
		TotalBytes: opts.TotalBytes,
	}, func(batch []ingest.RawRow, progress ingest.Progress) error {
		rows = append(rows, batch...)
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
		return nil
	})
	if err != nil {
		m.finish(generation)
		return nil, err
	}

	dataset := normalize.Build(&ingest.Result{Shape: shape, Rows: rows}, opts.Locations)
	if dataset.Empty() {
		m.finish(generation)
		return nil, &ingest.EmptyInputError{}
	}

	if !m.install(generation, dataset) {
		log.Infof("discarding superseded upload (generation %d)", generation)
		return nil, ErrSuperseded
	}
	return dataset, nil
}
