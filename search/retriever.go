package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docent/core"
)

const (
	DefaultTopK         = 5
	DefaultMinRelevance = 0.3
)

// Index is the part of the vector index the retriever needs.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]core.ScoredEntry, error)
}

// Retriever finds the passages relevant to a question.
type Retriever struct {
	index        Index
	topK         int
	minRelevance float32
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets how many candidates are requested from the index.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		r.topK = k
		return nil
	}
}

// WithMinRelevance sets the relevance a candidate must exceed to be kept.
// Default is DefaultMinRelevance.
func WithMinRelevance(min float32) Option {
	return func(r *Retriever) error {
		if min < 0 || min > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidRelevance, min)
		}
		r.minRelevance = min
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over index.
func NewRetriever(index Index, opts ...Option) (*Retriever, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	r := &Retriever{
		index:        index,
		topK:         DefaultTopK,
		minRelevance: DefaultMinRelevance,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

func (r *Retriever) TopK() int {
	return r.topK
}

func (r *Retriever) MinRelevance() float32 {
	return r.minRelevance
}

// Retrieve returns the passages relevant to query, most relevant first.
// An empty context is a valid result meaning nothing cleared the threshold.
func (r *Retriever) Retrieve(ctx context.Context, query string) (core.RetrievedContext, error) {
	return r.RetrieveWithMonitor(ctx, query, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, monitor RetrievalMonitor) (core.RetrievedContext, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	candidates, err := r.index.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return core.RetrievedContext{}, err
	}
	monitor.AfterSearch(candidates)

	rc := core.RetrievedContext{Query: query}
	for _, c := range candidates {
		if c.Score > r.minRelevance {
			rc.Entries = append(rc.Entries, c)
			continue
		}
		monitor.Rejected(c)
	}

	r.logger.Debug("retrieved context",
		"candidates", len(candidates),
		"kept", len(rc.Entries),
		"min_relevance", r.minRelevance)
	monitor.Finish(rc)

	return rc, nil
}
