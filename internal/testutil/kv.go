package testutil

import (
	"context"
	"sync"

	"github.com/roach88/slotmarks/internal/store"
)

// FlakyKV wraps a KV and fails reads or writes on demand.
type FlakyKV struct {
	mu      sync.Mutex
	inner   store.KV
	getErr  error
	setErr  error
	sets    int
	setFail int
}

// NewFlakyKV wraps inner. A nil inner uses a fresh store.MemoryKV.
func NewFlakyKV(inner store.KV) *FlakyKV {
	if inner == nil {
		inner = store.NewMemoryKV()
	}
	return &FlakyKV{inner: inner}
}

// FailGets makes every Get return err until cleared with FailGets(nil).
func (f *FlakyKV) FailGets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

// FailSets makes every Set return err until cleared with FailSets(nil).
// A failed Set stores nothing.
func (f *FlakyKV) FailSets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

// Sets returns the number of successful Set calls.
func (f *FlakyKV) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// FailedSets returns the number of Set calls rejected by FailSets.
func (f *FlakyKV) FailedSets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setFail
}

// Get implements store.KV.
func (f *FlakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	err := f.getErr
	f.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return f.inner.Get(ctx, key)
}

// Set implements store.KV.
func (f *FlakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	err := f.setErr
	if err != nil {
		f.setFail++
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if err := f.inner.Set(ctx, key, value); err != nil {
		return err
	}
	f.mu.Lock()
	f.sets++
	f.mu.Unlock()
	return nil
}
