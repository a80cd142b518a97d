package reembed

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []*core.IndexEntry {
	return []*core.IndexEntry{
		{Id: 1, Seq: 0, Source: "congo.pdf", Text: "Brazzaville is the capital.", Vector: []float32{1, 0}},
		{Id: 2, Seq: 1, Source: "congo.pdf", Text: "Pointe-Noire is a port.", Vector: []float32{0, 1}},
	}
}

func TestBatchProcessor_Process(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{3, 4, 0}
		}
		return out, nil
	}
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	entries := testEntries()
	updated, err := bp.Process(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	for i, e := range updated {
		assert.Equal(t, entries[i].Id, e.Id)
		assert.Equal(t, entries[i].Seq, e.Seq)
		assert.Equal(t, entries[i].Text, e.Text)
		assert.InDelta(t, 0.6, e.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, e.Vector[1], 1e-6)

		var sum float64
		for _, v := range e.Vector {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5, "vectors are normalised")
	}

	assert.Equal(t, []float32{1, 0}, entries[0].Vector, "input entries are not modified")
}

func TestBatchProcessor_Empty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	updated, err := NewBatchProcessor(embedder, 3, time.Millisecond).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_RetriesTransientFailures(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("rate limited")
		}
		return [][]float32{{1, 0}, {0, 1}}, nil
	}

	_, err := NewBatchProcessor(embedder, 3, time.Millisecond).Process(context.Background(), testEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestBatchProcessor_GivesUp(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service down")
	}

	_, err := NewBatchProcessor(embedder, 2, time.Millisecond).Process(context.Background(), testEntries())
	assert.ErrorIs(t, err, core.ErrEmbeddingService)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	_, err := NewBatchProcessor(embedder, 1, time.Millisecond).Process(context.Background(), testEntries())
	assert.ErrorContains(t, err, "embedding count mismatch")
}

func TestBatchProcessor_EmptyVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}, {}}, nil
	}

	_, err := NewBatchProcessor(embedder, 1, time.Millisecond).Process(context.Background(), testEntries())
	assert.ErrorIs(t, err, core.ErrMissingVector)
}
