package reembed

import (
	"context"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

const (
	// DefaultBatchSize is the default number of entries handed over per batch
	DefaultBatchSize = 64
)

// EntryIterator streams the stored entries in Seq order, in batches.
type EntryIterator struct {
	store     storage.EntryRepository
	batchSize int
}

func NewEntryIterator(store storage.EntryRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntryIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of at most batchSize entries.
// The last batch may be shorter. An error from fn stops the iteration.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.IndexEntry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*core.IndexEntry, 0, it.batchSize)
	err := it.store.ForEachEntry(ctx, func(entry *core.IndexEntry) error {
		batch = append(batch, entry)
		if len(batch) < it.batchSize {
			return nil
		}
		full := batch
		batch = make([]*core.IndexEntry, 0, it.batchSize)
		return fn(full)
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
