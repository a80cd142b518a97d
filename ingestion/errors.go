package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIngestFuncRequired is returned when a watcher has nowhere to send documents.
	ErrIngestFuncRequired = errors.New("ingest function required")

	// ErrUnsupportedFile is returned for files no loader can read.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrUnknownMode is returned for a build mode the builder does not know.
	ErrUnknownMode = errors.New("unknown build mode")
)
