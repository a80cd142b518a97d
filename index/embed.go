package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docent/core"
)

// embedAll embeds texts in batches on the worker pool and returns one
// vector per text, in order. Any failure fails the whole call.
func (ix *VectorIndex) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	batches := 0
	for start := 0; start < len(texts); start += ix.batchSize {
		end := min(start+ix.batchSize, len(texts))
		batches++

		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			batch, err := ix.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				fail(err)
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding result mismatch. expected %d, received %d", end-start, len(batch)))
				return
			}
			copy(vectors[start:end], batch)
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		ix.logger.Error("error generating embeddings", "texts", len(texts), "err", firstErr)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingService, firstErr)
	}

	ix.logger.Debug("generated embeddings", "texts", len(texts), "batches", batches)
	return vectors, nil
}
