package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryIterator_Batches(t *testing.T) {
	store := seedStore(t, 25, "old-model")
	it := NewEntryIterator(store, 10)

	var sizes []int
	var seqs []uint64
	err := it.ForEach(context.Background(), func(entries []*core.IndexEntry) error {
		sizes = append(sizes, len(entries))
		for _, e := range entries {
			seqs = append(seqs, e.Seq)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 5}, sizes)
	require.Len(t, seqs, 25)
	for i, seq := range seqs {
		assert.Equal(t, uint64(i), seq, "entries arrive in Seq order")
	}
}

func TestEntryIterator_ExactMultiple(t *testing.T) {
	store := seedStore(t, 20, "old-model")

	calls := 0
	err := NewEntryIterator(store, 10).ForEach(context.Background(), func(entries []*core.IndexEntry) error {
		calls++
		assert.Len(t, entries, 10)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "no trailing empty batch")
}

func TestEntryIterator_DefaultBatchSize(t *testing.T) {
	it := NewEntryIterator(seedStore(t, 1, "m"), 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestEntryIterator_StopsOnError(t *testing.T) {
	store := seedStore(t, 30, "old-model")
	boom := errors.New("boom")

	calls := 0
	err := NewEntryIterator(store, 10).ForEach(context.Background(), func(entries []*core.IndexEntry) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestEntryIterator_CancelledContext(t *testing.T) {
	store := seedStore(t, 5, "old-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewEntryIterator(store, 2).ForEach(ctx, func(entries []*core.IndexEntry) error {
		t.Fatal("should not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
