package objstore

import "context"

// Entry is one listing result. Err is set for per-entry listing failures;
// discovery continues past them
type Entry struct {
	Key string
	Err error
}

// Capability is the object-store surface the ingest path depends on.
// Implementations must be safe for concurrent readers
type Capability interface {
	// List enumerates keys under prefix. The channel closes when discovery
	// completes or ctx is cancelled
	List(ctx context.Context, prefix string) <-chan Entry

	// Read retrieves the full object body
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error
}
