// Package domain holds the core types and ports for ASN enrichment
package domain

import "context"

// CatchupPort is the public port exposed by the module
type CatchupPort interface {
	Catchup(ctx context.Context) (Summary, error)
}

// StorageRepo is the storage repository interface
type StorageRepo interface {
	// UnnamedASNs returns every ASN seen in traffic that has no name yet
	UnnamedASNs(ctx context.Context) ([]uint32, error)

	// UpsertName records the directory name for an ASN
	UpsertName(ctx context.Context, asn uint32, name string) error

	// UpsertDropListed records a deny-listed ASN with its list of origin
	UpsertDropListed(ctx context.Context, asn uint32, name, list string) error
}

// Directory resolves an ASN to its registered name
type Directory interface {
	ASName(ctx context.Context, asn uint32) (string, error)
}

// DropList fetches the full deny list as asn -> name
type DropList interface {
	Fetch(ctx context.Context) (map[uint32]string, error)
}

// Summary aggregates one catchup pass
type Summary struct {
	Scanned    int // ASNs that needed a name
	Named      int // resolved via the directory
	DropListed int // resolved via the deny list
	Unknown    int // still unnamed after both sources
}
