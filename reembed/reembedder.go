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


package reembed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder rewrites every stored entry with vectors from a new embedder.
type Reembedder struct {
	store     storage.EntryRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *EntryIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store storage.EntryRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:     store,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewEntryIterator(store, config.BatchSize),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds every entry and commits them as a new snapshot recorded
// under the embedder's model. On error the previous snapshot is kept.
// A store without a snapshot is left alone and yields a nil manifest.
func (r *Reembedder) Run(ctx context.Context) (*core.Manifest, error) {
	current, err := r.store.Manifest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(r.progress, "No index found (0 entries)\n")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	total := int(current.Count)
	if total == 0 {
		fmt.Fprintf(r.progress, "Index is empty (0 entries)\n")
		return current, nil
	}

	fmt.Fprintf(r.progress, "Re-embedding %d entries from %s to %s (batch size: %d)\n",
		total, current.EmbeddingModel, r.embedder.Model(), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	updated := make([]*core.IndexEntry, 0, total)
	dim := 0
	err = r.iterator.ForEach(ctx, func(entries []*core.IndexEntry) error {
		batch, err := r.processor.Process(ctx, entries)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		for _, entry := range batch {
			if dim == 0 {
				dim = len(entry.Vector)
			}
			if len(entry.Vector) != dim {
				return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
					ErrInconsistentDimension, entry.Seq, len(entry.Vector), dim)
			}
		}

		updated = append(updated, batch...)
		tracker.Update(len(updated))
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifest, err := r.store.ReplaceEntries(ctx, r.embedder.Model(), updated...)
	if err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-embedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	r.logger.Info("re-embedded index",
		"entries", manifest.Count,
		"model", manifest.EmbeddingModel,
		"dimension", manifest.Dimension,
		"generation", manifest.Generation)

	return manifest, nil
}
