// Package display holds the regulation review console component: it owns the
// displayed collection, loads it once on mount and renders it on demand.
package display

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/regconsole/internal/fetch"
	"github.com/dshills/regconsole/internal/render"
	"github.com/dshills/regconsole/internal/schema"
)

// State is the lifecycle state of a Display.
type State int

const (
	// StateEmpty is the initial state; the collection is empty.
	StateEmpty State = iota
	// StateLoaded means the fetch resolved and the collection was replaced.
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

// ErrAlreadyMounted is returned by a second Mount of the same Display.
var ErrAlreadyMounted = errors.New("display already mounted")

// Display is the regulation console component.
type Display struct {
	source   fetch.Source
	renderer render.Renderer
	logger   *slog.Logger
	onChange func(State)

	mu        sync.Mutex
	state     State
	records   []schema.Record
	mounted   bool
	unmounted bool
}

// Option configures a Display.
type Option func(*Display)

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Display) { d.logger = l }
}

// WithOnChange registers a callback invoked after the collection changes.
// It runs on the goroutine that called Mount.
func WithOnChange(fn func(State)) Option {
	return func(d *Display) { d.onChange = fn }
}

// New returns an empty Display reading from src and rendering with r.
func New(src fetch.Source, r render.Renderer, opts ...Option) *Display {
	d := &Display{
		source:   src,
		renderer: r,
		records:  []schema.Record{},
	}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Mount issues the single read of the collection and blocks until it
// resolves. On success the whole collection is replaced at once. On failure
// the display stays empty; the error is logged and returned, and there is no
// retry. Mount never applies a result that arrives after Unmount.
func (d *Display) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.mounted {
		d.mu.Unlock()
		return ErrAlreadyMounted
	}
	d.mounted = true
	d.mu.Unlock()

	records, err := d.source.Fetch(ctx)
	if err != nil {
		d.logger.Warn("loading regulations failed; display stays empty", "error", err)
		return err
	}

	d.mu.Lock()
	if d.unmounted {
		d.mu.Unlock()
		d.logger.Debug("dropping regulations resolved after unmount", "count", len(records))
		return nil
	}
	d.records = records
	d.state = StateLoaded
	d.mu.Unlock()

	d.logger.Debug("regulations loaded", "count", len(records))
	if d.onChange != nil {
		d.onChange(StateLoaded)
	}
	return nil
}

// Unmount discards the collection. A pending Mount will not apply its result.
func (d *Display) Unmount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmounted = true
	d.records = []schema.Record{}
	d.state = StateEmpty
}

// State reports the current lifecycle state.
func (d *Display) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Records returns a copy of the displayed collection.
func (d *Display) Records() []schema.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]schema.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Render renders the current collection. Before the fetch resolves this is
// the page chrome with no record sections.
func (d *Display) Render() ([]byte, error) {
	return d.renderer.Render(d.Records())
}
