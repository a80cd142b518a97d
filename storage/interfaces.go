package storage

import (
	"context"

	"github.com/poiesic/docent/core"
)

// EntryRepository persists the entries of a vector index as snapshots.
// A snapshot is identified by a manifest generation; entries of older
// generations are invisible once a newer manifest is committed.
// Implementations must be thread-safe and support concurrent access.
type EntryRepository interface {
	// Manifest returns the manifest of the current snapshot.
	// Returns ErrNotFound if nothing has been committed yet.
	Manifest(ctx context.Context) (*core.Manifest, error)

	// Entries returns every entry of the current snapshot in Seq order.
	// Returns ErrTruncatedData if the manifest counts entries that are missing.
	Entries(ctx context.Context) ([]*core.IndexEntry, error)

	// ForEachEntry streams the entries of the current snapshot in Seq order.
	// Iteration stops at the first error returned by fn.
	ForEachEntry(ctx context.Context, fn func(*core.IndexEntry) error) error

	// AppendEntries adds entries to the current snapshot. Entries must carry
	// consecutive Seq values starting at the manifest count. The new entries
	// become visible atomically with the manifest update.
	AppendEntries(ctx context.Context, model string, entries ...*core.IndexEntry) (*core.Manifest, error)

	// ReplaceEntries writes a new snapshot generation holding exactly the
	// given entries and then discards the previous generation.
	ReplaceEntries(ctx context.Context, model string, entries ...*core.IndexEntry) (*core.Manifest, error)

	// Close releases the repository and its backend.
	Close() error
}
