package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for passages in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates the vector embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Model names the embedding model. Vectors from different models are
	// not comparable, so the name is stored alongside every index.
	Model() string
}

// ChatModel produces a completion from a system instruction and a user message.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Generate returns the model's raw text for the given messages.
	Generate(ctx context.Context, system, user string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the answer generation service.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
