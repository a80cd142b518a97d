package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/index"
)

// BatchProcessor embeds batches of entries with retry.
type BatchProcessor struct {
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

func NewBatchProcessor(embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process returns copies of entries carrying fresh normalised vectors.
// The input entries are left untouched.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.IndexEntry) ([]*core.IndexEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(embeddings) != len(entries) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(embeddings))
		}
		return nil
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embeddings after %d attempts: %w",
			core.ErrEmbeddingService, bp.maxRetries, err)
	}

	out := make([]*core.IndexEntry, len(entries))
	for i, entry := range entries {
		if len(embeddings[i]) == 0 {
			return nil, fmt.Errorf("%w: entry %d", core.ErrMissingVector, entry.Seq)
		}
		updated := *entry
		updated.Vector = index.NormalizeVector(embeddings[i])
		out[i] = &updated
	}
	return out, nil
}
