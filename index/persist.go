package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
)

// Save writes the whole index as a new snapshot, replacing whatever the
// store held before.
func (ix *VectorIndex) Save(ctx context.Context, store storage.EntryRepository) error {
	if store == nil {
		return ErrStoreRequired
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	entries := ix.Entries()
	manifest, err := store.ReplaceEntries(ctx, ix.model, entries...)
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	ix.logger.Info("saved index", "entries", manifest.Count, "generation", manifest.Generation)
	return nil
}

// Sync appends the entries the store has not seen yet and returns how many
// were written. A store without a snapshot receives a full one.
func (ix *VectorIndex) Sync(ctx context.Context, store storage.EntryRepository) (int, error) {
	if store == nil {
		return 0, ErrStoreRequired
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	entries := ix.Entries()

	manifest, err := store.Manifest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		if _, err := store.ReplaceEntries(ctx, ix.model, entries...); err != nil {
			return 0, fmt.Errorf("saving index: %w", err)
		}
		return len(entries), nil
	}
	if err != nil {
		return 0, err
	}

	if manifest.Count > 0 && manifest.EmbeddingModel != ix.model {
		return 0, fmt.Errorf("%w: store has %q, index has %q", ErrModelMismatch, manifest.EmbeddingModel, ix.model)
	}
	if manifest.Count > uint64(len(entries)) {
		return 0, fmt.Errorf("%w: %d stored, %d in memory", ErrStoreAhead, manifest.Count, len(entries))
	}

	fresh := entries[manifest.Count:]
	if len(fresh) == 0 {
		return 0, nil
	}
	if _, err := store.AppendEntries(ctx, ix.model, fresh...); err != nil {
		return 0, fmt.Errorf("appending entries: %w", err)
	}

	ix.logger.Info("synced index", "appended", len(fresh), "total", len(entries))
	return len(fresh), nil
}

// Load rebuilds an index from the snapshot in store. Queries and new
// chunks are embedded with embedder, whose model must match the snapshot.
// Every failure to read the snapshot wraps core.ErrIndexCorrupt.
func Load(ctx context.Context, store storage.EntryRepository, embedder ai.Embedder, opts ...Option) (*VectorIndex, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	ix, err := New(embedder, opts...)
	if err != nil {
		return nil, err
	}

	if err := ix.load(ctx, store); err != nil {
		ix.Release()
		return nil, err
	}
	return ix, nil
}

func (ix *VectorIndex) load(ctx context.Context, store storage.EntryRepository) error {
	manifest, err := store.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading manifest: %w", core.ErrIndexCorrupt, err)
	}

	if manifest.EmbeddingModel != ix.model {
		return fmt.Errorf("%w: %w: snapshot built with %q, embedder is %q",
			core.ErrIndexCorrupt, ErrModelMismatch, manifest.EmbeddingModel, ix.model)
	}

	entries := make([]*core.IndexEntry, 0, manifest.Count)
	ids := make(map[core.ID]struct{}, manifest.Count)
	err = store.ForEachEntry(ctx, func(entry *core.IndexEntry) error {
		if err := core.ValidateEntry(entry); err != nil {
			return err
		}
		if len(entry.Vector) != manifest.Dimension {
			return fmt.Errorf("%w: entry %d has %d dimensions, manifest says %d",
				ErrDimensionMismatch, entry.Seq, len(entry.Vector), manifest.Dimension)
		}
		entries = append(entries, entry)
		ids[entry.Id] = struct{}{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.ids = ids
	ix.dim = manifest.Dimension
	ix.mu.Unlock()

	ix.logger.Info("loaded index",
		"entries", len(entries),
		"generation", manifest.Generation,
		"model", manifest.EmbeddingModel)
	return nil
}

// SaveToPath writes a full snapshot to the store directory at path,
// creating it if needed.
func (ix *VectorIndex) SaveToPath(ctx context.Context, path string) error {
	store, err := badger.NewRepository(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return ix.Save(ctx, store)
}

// LoadFromPath loads the snapshot stored in the directory at path.
// Returns storage.ErrNotFound when no store exists there.
func LoadFromPath(ctx context.Context, path string, embedder ai.Embedder, opts ...Option) (*VectorIndex, error) {
	if !storage.Exists(path) {
		return nil, fmt.Errorf("%w: no index at %s", storage.ErrNotFound, path)
	}

	store, err := badger.NewRepository(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}
	defer store.Close()

	return Load(ctx, store, embedder, opts...)
}
