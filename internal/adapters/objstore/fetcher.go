package objstore

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/platform/logger"
)

// Result is one fetch outcome. Exactly one of Set and Err is non-nil
type Result struct {
	Set *FetchedSet
	Err error
}

// FetchedSet is one retrieved object's bytes plus its lifecycle contract.
// The consumer must call Complete exactly once; Complete is the only place
// the source object is ever deleted
type FetchedSet struct {
	Name string
	Data []byte

	src  *Fetcher
	done atomic.Bool
}

// Complete finalizes the set with the processing outcome.
// On success with cleanup enabled the source object is deleted; a deletion
// failure surfaces as a cleanup error so it is never mistaken for a
// processing failure. On failure the source object is left in place and the
// error comes back annotated with the object name
func (s *FetchedSet) Complete(ctx context.Context, procErr error) error {
	if !s.done.CompareAndSwap(false, true) {
		return perr.Internalf("object %q finalized twice", s.Name)
	}
	if procErr != nil {
		return perr.Wrapf(procErr, perr.CodeOf(procErr), "object %q", s.Name)
	}
	if !s.src.cleanup {
		return nil
	}
	if err := s.src.store.Delete(ctx, s.Name); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCleanup, "cleanup of object %q after successful ingest", s.Name)
	}
	return nil
}

// Fetcher decouples object discovery from bounded concurrent retrieval
type Fetcher struct {
	store   Capability
	log     *logger.Logger
	prefix  string
	cleanup bool
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithPrefix restricts discovery to keys under prefix
func WithPrefix(p string) Option { return func(f *Fetcher) { f.prefix = p } }

// WithCleanup enables deletion of source objects on successful ingest
func WithCleanup(on bool) Option { return func(f *Fetcher) { f.cleanup = on } }

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option { return func(f *Fetcher) { f.log = l } }

// NewFetcher builds a Fetcher over the given store
func NewFetcher(store Capability, opts ...Option) *Fetcher {
	f := &Fetcher{store: store, log: logger.Named("fetcher")}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch discovers every object under the configured prefix and retrieves
// them with at most capacity transfers in flight. One retrieval unit is
// spawned per discovered key; each blocks on a slot reservation before
// performing network I/O, so capacity bounds concurrent transfers and
// memory-resident payloads, not the number of known keys.
//
// Results arrive in completion order, success or failure, one per discovered
// key plus one per listing error. The channel closes once discovery and all
// outstanding retrievals are done. Cancelling ctx terminates units silently
func (f *Fetcher) Fetch(ctx context.Context, capacity int64) <-chan Result {
	if capacity < 1 {
		capacity = 1
	}
	out := make(chan Result)
	slots := semaphore.NewWeighted(capacity)

	go func() {
		defer close(out)
		var units sync.WaitGroup

		for entry := range f.store.List(ctx, f.prefix) {
			if entry.Err != nil {
				// per-entry failure; discovery continues
				f.log.Warn().Err(entry.Err).Msg("listing entry failed")
				select {
				case out <- Result{Err: entry.Err}:
				case <-ctx.Done():
				}
				continue
			}

			units.Add(1)
			go func(key string) {
				defer units.Done()
				if err := slots.Acquire(ctx, 1); err != nil {
					// consumer gone; not an error
					return
				}
				defer slots.Release(1)

				res := f.retrieve(ctx, key)
				select {
				case out <- res:
				case <-ctx.Done():
				}
			}(entry.Key)
		}

		units.Wait()
	}()

	return out
}

func (f *Fetcher) retrieve(ctx context.Context, key string) Result {
	data, err := f.store.Read(ctx, key)
	if err != nil {
		f.log.Warn().Err(err).Str("object", key).Msg("retrieval failed")
		return Result{Err: perr.Wrapf(err, perr.ErrorCodeObjectStore, "retrieve %q", key)}
	}
	f.log.Debug().Str("object", key).Int("bytes", len(data)).Msg("retrieved")
	return Result{Set: &FetchedSet{Name: key, Data: data, src: f}}
}
