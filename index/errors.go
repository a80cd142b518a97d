package index

import "errors"

var (
	// ErrEmbedderRequired indicates that an embedder was not provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrStoreRequired indicates that an entry repository was not provided.
	ErrStoreRequired = errors.New("entry repository is required")

	// ErrDimensionMismatch indicates vectors of different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrModelMismatch indicates a snapshot written by another embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrStoreAhead indicates the store holds entries the index does not.
	ErrStoreAhead = errors.New("store holds more entries than the index")
)
