package mock

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"
)

// DefaultDimension is the vector size produced by MockEmbedder.
const DefaultDimension = 256

// stopWords are ignored when building bag-of-words vectors.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {}, "was": {},
	"to": {}, "of": {}, "and": {}, "in": {}, "that": {}, "have": {}, "it": {},
	"for": {}, "not": {}, "on": {}, "with": {}, "as": {}, "you": {}, "do": {},
	"at": {}, "this": {}, "but": {}, "by": {}, "from": {},
}

// MockEmbedder is a test double for ai.Embedder.
// It is safe for concurrent use.
type MockEmbedder struct {
	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default bag-of-words behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueryFunc is called by EmbedQuery if set.
	// If nil, uses default bag-of-words behavior.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	// ModelName is returned by Model.
	ModelName string

	mu          sync.Mutex
	vocabulary  map[string]int
	dim         int
	callCount   int
	textsCount  int
	queriesSeen []string
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		ModelName:  "mock-embedding",
		vocabulary: make(map[string]int),
		dim:        DefaultDimension,
	}
}

// EmbedTexts returns one vector per text.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.textsCount += len(texts)
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorize(text)
	}
	return vectors, nil
}

// EmbedQuery returns the vector of a single query.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.queriesSeen = append(m.queriesSeen, text)
	fn := m.EmbedQueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return m.vectorize(text), nil
}

func (m *MockEmbedder) Model() string {
	return m.ModelName
}

// CallCount returns the number of times any embedding method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// TextsEmbedded returns the total number of passages passed to EmbedTexts.
func (m *MockEmbedder) TextsEmbedded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textsCount
}

// Queries returns the queries passed to EmbedQuery, in call order.
func (m *MockEmbedder) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queriesSeen...)
}

// Reset clears the counters and custom functions. The vocabulary is kept so
// vectors stay comparable with those produced before the reset.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.textsCount = 0
	m.queriesSeen = nil
	m.EmbedTextsFunc = nil
	m.EmbedQueryFunc = nil
}

// vectorize builds a unit-length term-frequency vector. Each distinct
// content word gets the next free dimension; past the dimension count
// words share slots.
func (m *MockEmbedder) vectorize(text string) []float32 {
	vector := make([]float32, m.dim)

	m.mu.Lock()
	for _, token := range Tokenize(text) {
		slot, ok := m.vocabulary[token]
		if !ok {
			slot = len(m.vocabulary) % m.dim
			m.vocabulary[token] = slot
		}
		vector[slot]++
	}
	m.mu.Unlock()

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}

// Tokenize lowercases text, splits it on anything that is not a letter or
// digit and drops stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
