package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrStoreRequired is returned when no entry store is provided.
	ErrStoreRequired = errors.New("entry store required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInconsistentDimension is returned when the new model returns
	// vectors of different lengths.
	ErrInconsistentDimension = errors.New("inconsistent vector dimension")
)
