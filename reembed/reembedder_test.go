package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/index"
	"github.com/poiesic/docent/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{BatchSize: 8, ReportInterval: 5, MaxRetries: 2, RetryDelay: time.Millisecond}
}

func TestNewReembedder_Validation(t *testing.T) {
	store := seedStore(t, 1, "old-model")

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.Equal(t, ErrStoreRequired, err)

	_, err = NewReembedder(store, nil, nil, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	r, err := NewReembedder(store, mock.NewMockEmbedder(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestReembedder_Run(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 20, "old-model")

	before, err := store.Manifest(ctx)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.ModelName = "new-model"

	var out bytes.Buffer
	r, err := NewReembedder(store, embedder, fastConfig(), &out)
	require.NoError(t, err)

	manifest, err := r.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, manifest)

	assert.Equal(t, "new-model", manifest.EmbeddingModel)
	assert.Equal(t, uint64(20), manifest.Count)
	assert.Equal(t, mock.DefaultDimension, manifest.Dimension)
	assert.Equal(t, before.Generation+1, manifest.Generation)
	assert.Equal(t, 3, embedder.CallCount(), "20 entries in batches of 8")

	entries, err := store.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 20)
	for i, e := range entries {
		assert.Equal(t, uint64(i), e.Seq)
		assert.Len(t, e.Vector, mock.DefaultDimension)
	}

	assert.Contains(t, out.String(), "old-model to new-model")
	assert.Contains(t, out.String(), "20/20")
	assert.Contains(t, out.String(), "Re-embedding complete")

	// The rewritten store loads with the new embedder only.
	ix, err := index.Load(ctx, store, embedder)
	require.NoError(t, err)
	defer ix.Release()
	assert.Equal(t, 20, ix.Len())

	_, err = index.Load(ctx, store, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, core.ErrIndexCorrupt)
}

func TestReembedder_FailureKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 20, "old-model")

	embedder := mock.NewMockEmbedder()
	embedder.ModelName = "new-model"
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("service down")
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{0, 1}
		}
		return out, nil
	}

	r, err := NewReembedder(store, embedder, fastConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, core.ErrEmbeddingService)

	manifest, err := store.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old-model", manifest.EmbeddingModel)
	assert.Equal(t, uint64(20), manifest.Count)
}

func TestReembedder_InconsistentDimension(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 4, "old-model")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = make([]float32, 2+i)
			out[i][0] = 1
		}
		return out, nil
	}

	r, err := NewReembedder(store, embedder, fastConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, ErrInconsistentDimension)
}

func TestReembedder_NoIndex(t *testing.T) {
	store := seedStore(t, 0, "")

	var out bytes.Buffer
	r, err := NewReembedder(store, mock.NewMockEmbedder(), fastConfig(), &out)
	require.NoError(t, err)

	manifest, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, manifest)
	assert.Contains(t, out.String(), "No index found")

	_, err = store.Manifest(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
