package docent

import "errors"

var (
	// ErrNoIndex is returned when a question is asked before any document
	// has been indexed.
	ErrNoIndex = errors.New("no documents indexed")

	// ErrClosed is returned by an assistant after Close.
	ErrClosed = errors.New("assistant closed")
)
