package objstore

import (
	"context"
	"sort"
	"sync"
	"time"

	perr "logcrunch/internal/platform/errors"
)

// Memory is an in-process Capability for tests and the local runner.
// It tracks concurrent Read pressure so retrieval bounds can be asserted
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	// fault injection
	readErr  map[string]error
	listErrs []error
	delErr   error

	// ReadDelay widens the concurrency window inside Read
	ReadDelay time.Duration

	active    int
	maxActive int
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Put stores a copy of data under key
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Exists reports whether key is present
func (m *Memory) Exists(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// FailRead makes Read on key return err
func (m *Memory) FailRead(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr == nil {
		m.readErr = make(map[string]error)
	}
	m.readErr[key] = err
}

// FailListing injects per-entry listing failures, emitted before real keys
func (m *Memory) FailListing(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErrs = append(m.listErrs, errs...)
}

// FailDelete makes every Delete return err
func (m *Memory) FailDelete(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delErr = err
}

// MaxConcurrentReads reports the high-water mark of overlapping Read calls
func (m *Memory) MaxConcurrentReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// List emits injected listing errors first, then keys under prefix in sorted order
func (m *Memory) List(ctx context.Context, prefix string) <-chan Entry {
	m.mu.Lock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	errs := append([]error(nil), m.listErrs...)
	m.mu.Unlock()
	sort.Strings(keys)

	out := make(chan Entry)
	go func() {
		defer close(out)
		for _, err := range errs {
			select {
			case out <- Entry{Err: err}:
			case <-ctx.Done():
				return
			}
		}
		for _, k := range keys {
			select {
			case out <- Entry{Key: k}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Read returns a copy of the object body
func (m *Memory) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	delay := m.ReadDelay
	ferr := m.readErr[key]
	data, ok := m.objects[key]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ferr != nil {
		return nil, ferr
	}
	if !ok {
		return nil, perr.NotFoundf("object %q", key)
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the object
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.objects[key]; !ok {
		return perr.NotFoundf("object %q", key)
	}
	delete(m.objects, key)
	return nil
}
