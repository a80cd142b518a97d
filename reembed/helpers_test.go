package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
	"github.com/stretchr/testify/require"
)

// seedStore fills an in-memory store with n entries under model.
func seedStore(t *testing.T, n int, model string) storage.EntryRepository {
	t.Helper()
	store, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	entries := make([]*core.IndexEntry, n)
	for i := range entries {
		text := fmt.Sprintf("Passage %d about the Congo basin.", i)
		entries[i] = &core.IndexEntry{
			Id:         core.EntryID("congo.pdf", text),
			Seq:        uint64(i),
			Source:     "congo.pdf",
			Page:       i/10 + 1,
			Position:   i % 10,
			Text:       text,
			Vector:     []float32{1, 0, 0},
			InsertedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	if n > 0 {
		_, err = store.ReplaceEntries(context.Background(), model, entries...)
		require.NoError(t, err)
	}
	return store
}
