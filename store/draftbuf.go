package store

import (
	"context"
	"sync"
)

// Draft holds an uncommitted edit of a value. Edits are invisible to
// everything reading the committed value until Commit runs.
type Draft[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	open    func() (T, error)
	commit  func(context.Context, T) error
}

// NewDraft builds a draft that reloads from open and publishes through commit.
func NewDraft[T any](open func() (T, error), commit func(context.Context, T) error) *Draft[T] {
	return &Draft[T]{open: open, commit: commit}
}

// Get returns the pending value, or a fresh copy when nothing is pending.
func (d *Draft[T]) Get() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensure(); err != nil {
		var zero T
		return zero, err
	}
	return d.value, nil
}

// Edit applies fn to the pending value. A failing fn leaves it unchanged.
func (d *Draft[T]) Edit(fn func(*T) error) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensure(); err != nil {
		var zero T
		return zero, err
	}
	next := d.value
	if c, ok := any(next).(interface{ Clone() T }); ok {
		next = c.Clone()
	}
	if err := fn(&next); err != nil {
		return d.value, err
	}
	d.value = next
	d.pending = true
	return d.value, nil
}

func (d *Draft[T]) Commit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		return nil
	}
	if err := d.commit(ctx, d.value); err != nil {
		return err
	}
	d.reset()
	return nil
}

func (d *Draft[T]) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Pending reports whether an edit is waiting to be committed.
func (d *Draft[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Draft[T]) ensure() error {
	if d.pending {
		return nil
	}
	v, err := d.open()
	if err != nil {
		return err
	}
	d.value = v
	return nil
}

func (d *Draft[T]) reset() {
	var zero T
	d.value = zero
	d.pending = false
}
