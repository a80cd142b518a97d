package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/index"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
)

const (
	DefaultDocumentDir = "documents"
	DefaultIndexDir    = "index"
)

// Mode selects the indexing policy of BuildOrUpdate.
type Mode int

const (
	// ModeInitial rebuilds the index from scratch.
	ModeInitial Mode = iota
	// ModeIncremental appends new passages to an existing index.
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeInitial:
		return "initial"
	case ModeIncremental:
		return "incremental"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Builder creates, updates and persists the vector index.
type Builder struct {
	embedder  ai.Embedder
	docDir    string
	indexDir  string
	loader    Loader
	bulk      *chunker.Splitter
	adhoc     *chunker.Splitter
	batchSize int
	pool      *ants.Pool
	store     storage.EntryRepository
	ownsStore bool
	base      *slog.Logger
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithDocumentDir sets the folder scanned by ModeInitial.
// Default is DefaultDocumentDir.
func WithDocumentDir(dir string) Option {
	return func(b *Builder) error {
		b.docDir = dir
		return nil
	}
}

// WithIndexDir sets the directory holding the persisted index.
// Default is DefaultIndexDir.
func WithIndexDir(dir string) Option {
	return func(b *Builder) error {
		b.indexDir = dir
		return nil
	}
}

// WithStore persists to store instead of opening the index directory.
// The builder does not close a store it was given.
func WithStore(store storage.EntryRepository) Option {
	return func(b *Builder) error {
		b.store = store
		b.ownsStore = false
		return nil
	}
}

// WithLoader replaces the directory loader used by ModeInitial.
func WithLoader(loader Loader) Option {
	return func(b *Builder) error {
		b.loader = loader
		return nil
	}
}

// WithBulkSplitter sets the splitter used by ModeInitial.
// Default is chunker.Bulk.
func WithBulkSplitter(s *chunker.Splitter) Option {
	return func(b *Builder) error {
		b.bulk = s
		return nil
	}
}

// WithAdHocSplitter sets the splitter used by ModeIncremental.
// Default is chunker.AdHoc.
func WithAdHocSplitter(s *chunker.Splitter) Option {
	return func(b *Builder) error {
		b.adhoc = s
		return nil
	}
}

// WithBatchSize sets how many passages go into one embedding request.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		b.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}

		if b.pool != nil {
			b.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a builder embedding through embedder.
func NewBuilder(embedder ai.Embedder, opts ...Option) (*Builder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
	if err != nil {
		return nil, err
	}

	b := &Builder{
		embedder: embedder,
		docDir:   DefaultDocumentDir,
		indexDir: DefaultIndexDir,
		bulk:     chunker.NewFromPreset(chunker.Bulk),
		adhoc:    chunker.NewFromPreset(chunker.AdHoc),
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Close()
			return nil, optErr
		}
	}

	b.base = b.logger
	b.logger = b.base.With("component", "index-builder")
	if b.loader == nil {
		b.loader = NewDirectoryLoader(b.docDir, b.base)
	}

	return b, nil
}

// DocumentDir returns the folder scanned by ModeInitial.
func (b *Builder) DocumentDir() string {
	return b.docDir
}

// IndexDir returns the directory holding the persisted index.
func (b *Builder) IndexDir() string {
	return b.indexDir
}

// Initialize returns the persisted index when one exists and builds it
// from the document folder otherwise. An empty folder fails with
// core.ErrEmptyCorpus; an unreadable index with core.ErrIndexCorrupt.
func (b *Builder) Initialize(ctx context.Context) (*index.VectorIndex, error) {
	if err := os.MkdirAll(b.docDir, 0755); err != nil {
		return nil, fmt.Errorf("creating document folder: %w", err)
	}

	store, err := b.openStore()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	_, err = store.Manifest(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.logger.Info("no index found, building from documents", "dir", b.docDir)
		return b.BuildOrUpdate(ctx, nil, nil, ModeInitial)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	return index.Load(ctx, store, b.embedder, b.indexOptions()...)
}

// BuildOrUpdate applies docs to the index according to mode and persists
// the result before returning.
//
// ModeInitial ignores existing and builds a new index from docs, or from
// the document folder when docs is nil, replacing the persisted one.
// ModeIncremental adds docs to existing, loading the persisted index first
// when existing is nil. Passages already indexed are skipped.
//
// The caller keeps ownership of existing; when a new index is returned it
// is the caller's job to release the old one. In ModeIncremental a
// persistence error is returned after the new passages were already
// appended to existing, which keeps serving them; the next successful
// update writes them to the store.
func (b *Builder) BuildOrUpdate(ctx context.Context, existing *index.VectorIndex, docs []core.Document, mode Mode) (*index.VectorIndex, error) {
	switch mode {
	case ModeInitial:
		return b.build(ctx, docs)
	case ModeIncremental:
		return b.update(ctx, existing, docs)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

func (b *Builder) build(ctx context.Context, docs []core.Document) (*index.VectorIndex, error) {
	if docs == nil {
		loaded, err := b.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		docs = loaded
	}

	chunks := b.bulk.Split(docs)
	if len(chunks) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	ix, err := index.Create(ctx, b.embedder, chunks, b.indexOptions()...)
	if err != nil {
		return nil, err
	}

	if err := b.persist(ctx, ix, true); err != nil {
		ix.Release()
		return nil, err
	}

	b.logger.Info("built index", "documents", len(docs), "chunks", len(chunks), "entries", ix.Len())
	return ix, nil
}

// update appends the new chunks to the index before syncing the store, so
// a failed sync leaves them in memory but not on disk.
func (b *Builder) update(ctx context.Context, existing *index.VectorIndex, docs []core.Document) (*index.VectorIndex, error) {
	chunks := b.adhoc.Split(docs)

	ix := existing
	if ix == nil {
		loaded, err := b.loadOrEmpty(ctx)
		if err != nil {
			return nil, err
		}
		ix = loaded
	}

	if ix.Len() == 0 && len(chunks) == 0 {
		if ix != existing {
			ix.Release()
		}
		return nil, core.ErrEmptyCorpus
	}

	added, err := ix.Add(ctx, chunks)
	if err != nil {
		if ix != existing {
			ix.Release()
		}
		return nil, err
	}

	if added > 0 || ix != existing {
		if err := b.persist(ctx, ix, false); err != nil {
			if ix != existing {
				ix.Release()
			}
			return nil, err
		}
	}

	b.logger.Info("updated index", "documents", len(docs), "chunks", len(chunks), "added", added, "entries", ix.Len())
	return ix, nil
}

func (b *Builder) loadOrEmpty(ctx context.Context) (*index.VectorIndex, error) {
	store, err := b.openStore()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexCorrupt, err)
	}

	if _, err := store.Manifest(ctx); errors.Is(err, storage.ErrNotFound) {
		return index.New(b.embedder, b.indexOptions()...)
	}
	return index.Load(ctx, store, b.embedder, b.indexOptions()...)
}

func (b *Builder) persist(ctx context.Context, ix *index.VectorIndex, replace bool) error {
	store, err := b.openStore()
	if err != nil {
		return err
	}

	if replace {
		return ix.Save(ctx, store)
	}
	_, err = ix.Sync(ctx, store)
	return err
}

func (b *Builder) indexOptions() []index.Option {
	opts := []index.Option{
		index.WithPool(b.pool),
		index.WithLogger(b.base),
	}
	if b.batchSize > 0 {
		opts = append(opts, index.WithBatchSize(b.batchSize))
	}
	return opts
}

// openStore opens the index directory on first use, creating it if needed.
func (b *Builder) openStore() (storage.EntryRepository, error) {
	if b.store != nil {
		return b.store, nil
	}

	if err := os.MkdirAll(b.indexDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	store, err := badger.NewRepository(b.indexDir)
	if err != nil {
		return nil, err
	}
	b.store = store
	b.ownsStore = true
	return store, nil
}

// Close releases the worker pool and closes the store if the builder opened it.
// Indexes created by the builder must not add passages after Close.
func (b *Builder) Close() error {
	if b.pool != nil {
		b.pool.Release()
		b.pool = nil
	}
	if b.ownsStore && b.store != nil {
		err := b.store.Close()
		b.store = nil
		return err
	}
	return nil
}
