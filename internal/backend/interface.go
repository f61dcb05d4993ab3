// Package backend selects and assembles the persistence stack a binary
// runs against: the blob store, the optional event publisher, and the
// queryable SQLite mirror.
package backend

import (
	"context"

	"plazabi/internal/records"
	"plazabi/internal/storage"
)

// Store is the blob persistence surface shared by every feature that keeps
// a JSON collection.
type Store interface {
	GetBlob(ctx context.Context, key string) (string, error)
	PutBlob(ctx context.Context, key, value string) error
	DeleteBlob(ctx context.Context, key string) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the assembled backend.
type Result struct {
	Blobs Store

	// Publisher is nil when no broker is configured; record mutations
	// then simply skip event publishing.
	Publisher records.Publisher

	// SQLite is set only for the sqlite backend. It additionally serves
	// the records index and the employee roster.
	SQLite *storage.SQLiteRepository

	Cleanup CleanupFunc
}

// Kind represents the backend type.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// IsValid returns true if the backend kind is known.
func (k Kind) IsValid() bool {
	return k == KindSQLite || k == KindMemory
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}
