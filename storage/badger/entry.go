// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend     *Backend
	ownsBackend bool
	// Serializes writers so manifest read-modify-write cycles don't interleave.
	writeMu sync.Mutex
	logger  *slog.Logger
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a repository over an existing backend.
// Closing the repository leaves the backend open.
func NewEntryRepository(backend *Backend) *EntryRepository {
	return &EntryRepository{
		backend: backend,
		logger:  slog.Default().With("component", "entry-repository"),
	}
}

// NewRepository opens (or creates) a store in the directory at path.
//
// Returns storage.EntryRepository interface to enforce abstraction.
func NewRepository(path string) (storage.EntryRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo := NewEntryRepository(backend)
	repo.ownsBackend = true
	return repo, nil
}

// Close releases the backend when the repository opened it.
func (r *EntryRepository) Close() error {
	if r.ownsBackend && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

func (r *EntryRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Manifest returns the manifest of the current snapshot.
func (r *EntryRepository) Manifest(ctx context.Context) (*core.Manifest, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var manifest *core.Manifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		manifest, err = readManifest(tx)
		return err
	}, false)
	return manifest, err
}

func readManifest(tx *badger.Txn) (*core.Manifest, error) {
	item, err := tx.Get([]byte(manifestKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var manifest *core.Manifest
	err = item.Value(func(val []byte) error {
		var err error
		manifest, err = storage.UnmarshalManifest(val)
		return err
	})
	return manifest, err
}

// Entries returns every entry of the current snapshot in Seq order.
func (r *EntryRepository) Entries(ctx context.Context) ([]*core.IndexEntry, error) {
	var entries []*core.IndexEntry
	err := r.ForEachEntry(ctx, func(entry *core.IndexEntry) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ForEachEntry streams the entries of the current snapshot in Seq order.
// Keys past the manifest count belong to an unfinished write and are ignored.
func (r *EntryRepository) ForEachEntry(ctx context.Context, fn func(*core.IndexEntry) error) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		manifest, err := readManifest(tx)
		if err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(manifest.Generation)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var next uint64
		for iter.Rewind(); iter.Valid() && next < manifest.Count; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := iter.Item()
			seq, ok := seqFromEntryKey(item.Key())
			if !ok || seq != next {
				return fmt.Errorf("%w: expected entry %d of generation %d",
					storage.ErrTruncatedData, next, manifest.Generation)
			}

			var entry *core.IndexEntry
			err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry.Seq != seq {
				return fmt.Errorf("%w: entry %d stored under key %d",
					storage.ErrSerializationFailed, entry.Seq, seq)
			}

			if err := fn(entry); err != nil {
				return err
			}
			next++
		}

		if next < manifest.Count {
			return fmt.Errorf("%w: found %d of %d entries",
				storage.ErrTruncatedData, next, manifest.Count)
		}
		return nil
	}, false)
}

// AppendEntries adds entries to the current snapshot.
func (r *EntryRepository) AppendEntries(ctx context.Context, model string, entries ...*core.IndexEntry) (*core.Manifest, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	manifest, err := r.Manifest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		manifest = &core.Manifest{Generation: 1, FormatVersion: storage.FormatVersion}
	} else if err != nil {
		return nil, err
	}

	for i, entry := range entries {
		if entry.Seq != manifest.Count+uint64(i) {
			return nil, fmt.Errorf("%w: entry seq %d, expected %d",
				storage.ErrSequenceGap, entry.Seq, manifest.Count+uint64(i))
		}
	}

	if err := r.writeEntries(ctx, manifest.Generation, entries); err != nil {
		return nil, err
	}

	updated := *manifest
	updated.Count += uint64(len(entries))
	updated.EmbeddingModel = model
	if updated.Dimension == 0 && len(entries) > 0 {
		updated.Dimension = len(entries[0].Vector)
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := r.commitManifest(&updated); err != nil {
		return nil, err
	}

	r.logger.Debug("appended entries", "count", len(entries), "total", updated.Count, "generation", updated.Generation)
	return &updated, nil
}

// ReplaceEntries writes a new snapshot generation holding exactly entries.
func (r *EntryRepository) ReplaceEntries(ctx context.Context, model string, entries ...*core.IndexEntry) (*core.Manifest, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	previous, err := r.Manifest(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	var generation uint64 = 1
	if previous != nil {
		generation = previous.Generation + 1
	}

	for i, entry := range entries {
		if entry.Seq != uint64(i) {
			return nil, fmt.Errorf("%w: entry seq %d, expected %d", storage.ErrSequenceGap, entry.Seq, i)
		}
	}

	if err := r.writeEntries(ctx, generation, entries); err != nil {
		return nil, err
	}

	manifest := &core.Manifest{
		Generation:     generation,
		Count:          uint64(len(entries)),
		EmbeddingModel: model,
		FormatVersion:  storage.FormatVersion,
		UpdatedAt:      time.Now().UTC(),
	}
	if len(entries) > 0 {
		manifest.Dimension = len(entries[0].Vector)
	}

	if err := r.commitManifest(manifest); err != nil {
		return nil, err
	}

	if previous != nil {
		// The new snapshot is already committed; a failed cleanup only wastes space.
		if err := r.backend.DeletePrefix(makeGenerationPrefix(previous.Generation)); err != nil {
			r.logger.Warn("failed to drop previous generation", "generation", previous.Generation, "err", err)
		}
	}

	r.logger.Debug("replaced entries", "count", len(entries), "generation", generation)
	return manifest, nil
}

func (r *EntryRepository) writeEntries(ctx context.Context, generation uint64, entries []*core.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.backend.WriteBatch(func(set func(key, value []byte) error) error {
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := set(makeEntryKey(generation, entry.Seq), storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EntryRepository) commitManifest(manifest *core.Manifest) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(manifestKey), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
