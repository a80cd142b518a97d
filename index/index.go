package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// DefaultBatchSize is the number of passages sent per embedding request.
const DefaultBatchSize = 32

// VectorIndex is an in-memory nearest neighbour index over chunk embeddings.
type VectorIndex struct {
	embedder  ai.Embedder
	model     string
	batchSize int
	pool      *ants.Pool
	ownsPool  bool
	logger    *slog.Logger

	// writeMu serializes mutations; mu guards the fields below it.
	writeMu sync.Mutex
	mu      sync.RWMutex
	entries []*core.IndexEntry
	ids     map[core.ID]struct{}
	dim     int
}

// Option configures a VectorIndex.
type Option func(*VectorIndex) error

// WithBatchSize sets how many passages are embedded per request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(ix *VectorIndex) error {
		if size < 1 {
			size = 1
		}
		ix.batchSize = size
		return nil
	}
}

// WithPool runs embedding batches on a caller-owned pool.
// The index does not release it.
func WithPool(pool *ants.Pool) Option {
	return func(ix *VectorIndex) error {
		if pool == nil {
			return nil
		}
		if ix.ownsPool && ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		ix.ownsPool = false
		return nil
	}
}

// WithPoolSize sets the size of the index's own worker pool.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *VectorIndex) error {
		pool, err := ants.NewPool(max(size, 1))
		if err != nil {
			return err
		}
		if ix.ownsPool && ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		ix.ownsPool = true
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *VectorIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger.With("component", "vector-index")
		return nil
	}
}

// New creates an empty index embedding through embedder.
// Call Release when done to free the worker pool.
func New(embedder ai.Embedder, opts ...Option) (*VectorIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &VectorIndex{
		embedder:  embedder,
		model:     embedder.Model(),
		batchSize: DefaultBatchSize,
		ids:       make(map[core.ID]struct{}),
		logger:    slog.Default().With("component", "vector-index"),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}

	if ix.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
		if err != nil {
			return nil, err
		}
		ix.pool = pool
		ix.ownsPool = true
	}

	return ix, nil
}

// Create builds an index over chunks. It fails with core.ErrEmptyCorpus
// when there is nothing to index.
func Create(ctx context.Context, embedder ai.Embedder, chunks []core.Chunk, opts ...Option) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	ix, err := New(embedder, opts...)
	if err != nil {
		return nil, err
	}

	if _, err := ix.Add(ctx, chunks); err != nil {
		ix.Release()
		return nil, err
	}
	return ix, nil
}

// Release frees the worker pool if the index created it.
func (ix *VectorIndex) Release() {
	if ix.ownsPool && ix.pool != nil {
		ix.pool.Release()
		ix.pool = nil
	}
}

// Add embeds and appends chunks, returning how many entries were added.
// Chunks already present (same source and text) are skipped. Either every
// new chunk is added or, on error, none is.
func (ix *VectorIndex) Add(ctx context.Context, chunks []core.Chunk) (int, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	pending := make([]core.Chunk, 0, len(chunks))
	pendingIDs := make([]core.ID, 0, len(chunks))
	seen := make(map[core.ID]struct{}, len(chunks))

	ix.mu.RLock()
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			ix.mu.RUnlock()
			return 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		id := core.EntryID(chunks[i].Source, chunks[i].Text)
		if _, ok := ix.ids[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pending = append(pending, chunks[i])
		pendingIDs = append(pendingIDs, id)
	}
	dim := ix.dim
	ix.mu.RUnlock()

	if skipped := len(chunks) - len(pending); skipped > 0 {
		ix.logger.Debug("skipping duplicate chunks", "count", skipped)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i := range pending {
		texts[i] = pending[i].Text
	}

	vectors, err := ix.embedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return 0, fmt.Errorf("%w: passage %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}

	now := time.Now().UTC()
	ix.mu.Lock()
	defer ix.mu.Unlock()

	base := uint64(len(ix.entries))
	for i := range pending {
		c := &pending[i]
		ix.entries = append(ix.entries, &core.IndexEntry{
			Id:         pendingIDs[i],
			Seq:        base + uint64(i),
			Source:     c.Source,
			Page:       c.Page,
			Position:   c.Position,
			Text:       c.Text,
			Vector:     NormalizeVector(vectors[i]),
			Metadata:   c.Metadata,
			InsertedAt: now,
		})
		ix.ids[pendingIDs[i]] = struct{}{}
	}
	ix.dim = dim

	ix.logger.Info("added entries", "added", len(pending), "total", len(ix.entries))
	return len(pending), nil
}

// Search returns up to k entries ordered by descending relevance to query.
// Entries with equal relevance keep insertion order. An empty index
// yields no results and makes no embedding call.
func (ix *VectorIndex) Search(ctx context.Context, query string, k int) ([]core.ScoredEntry, error) {
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}

	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
	}

	return ix.SearchVector(vector, k)
}

// SearchVector is Search for a precomputed query vector.
func (ix *VectorIndex) SearchVector(vector []float32, k int) ([]core.ScoredEntry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			ErrDimensionMismatch, len(vector), ix.dim)
	}

	q := NormalizeVector(vector)
	results := make([]core.ScoredEntry, len(ix.entries))
	for i, entry := range ix.entries {
		results[i] = core.ScoredEntry{Entry: entry, Score: Relevance(q, entry.Vector)}
	}

	slices.SortStableFunc(results, func(a, b core.ScoredEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of entries.
func (ix *VectorIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Dimension returns the vector length, or 0 for an empty index.
func (ix *VectorIndex) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Model returns the name of the embedding model the vectors came from.
func (ix *VectorIndex) Model() string {
	return ix.model
}

// Embedder returns the embedder used for queries and new chunks.
func (ix *VectorIndex) Embedder() ai.Embedder {
	return ix.embedder
}

// Entries returns the entries in insertion order.
// The slice is a copy; the entries themselves must not be modified.
func (ix *VectorIndex) Entries() []*core.IndexEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.entries)
}

// Contains reports whether an entry with the given content ID exists.
func (ix *VectorIndex) Contains(id core.ID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.ids[id]
	return ok
}

// Sources returns the distinct entry sources, sorted.
func (ix *VectorIndex) Sources() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	set := make(map[string]struct{})
	for _, e := range ix.entries {
		set[e.Source] = struct{}{}
	}
	sources := make([]string, 0, len(set))
	for s := range set {
		sources = append(sources, s)
	}
	slices.Sort(sources)
	return sources
}
