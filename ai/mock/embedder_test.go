package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"capital", "république", "congo", "brazzaville"},
		Tokenize("The capital of the République, Congo: Brazzaville!"))
	assert.Empty(t, Tokenize("the of and"))
	assert.Empty(t, Tokenize(""))
}

func TestMockEmbedder_Vectors(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	vectors, err := m.EmbedTexts(ctx, []string{
		"Brazzaville is the capital city",
		"Pointe-Noire is a port",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	for _, v := range vectors {
		assert.Len(t, v, DefaultDimension)
		assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5)
	}

	q, err := m.EmbedQuery(ctx, "capital city")
	require.NoError(t, err)
	assert.Greater(t, dot(q, vectors[0]), dot(q, vectors[1]))

	again, err := m.EmbedQuery(ctx, "capital city")
	require.NoError(t, err)
	assert.Equal(t, q, again)
}

func TestMockEmbedder_Counters(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	_, _ = m.EmbedTexts(ctx, []string{"a", "b", "c"})
	_, _ = m.EmbedQuery(ctx, "question")

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 3, m.TextsEmbedded())
	assert.Equal(t, []string{"question"}, m.Queries())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Zero(t, m.TextsEmbedded())
	assert.Empty(t, m.Queries())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	m := NewMockEmbedder()
	boom := errors.New("boom")
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.CallCount())
}

func TestMockEmbedder_Concurrent(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EmbedTexts(context.Background(), []string{"congo river basin", "forest"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, m.CallCount())
	assert.Equal(t, 16, m.TextsEmbedded())
}

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()
	m := NewMockChatModel()

	_, ok := m.LastCall()
	assert.False(t, ok)

	out, err := m.Generate(ctx, "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	call, ok := m.LastCall()
	require.True(t, ok)
	assert.Equal(t, ChatCall{System: "sys", User: "hello"}, call)

	m.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return "fixed", nil
	}
	out, err = m.Generate(ctx, "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
}
