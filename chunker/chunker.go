// Package chunker splits loaded documents into bounded, overlapping passages.
//
// Splitting is recursive: the text is cut at the coarsest separator it
// contains (paragraphs, then lines, then sentences, then words) and any
// piece still too large is cut again with the next finer separator,
// down to single characters. Separators stay attached to the end of the
// piece they terminate, so every chunk is an exact substring of its
// document and carries its rune offset.
//
// Adjacent pieces are then packed into chunks of at most the configured
// size. Each new chunk starts with up to the configured overlap taken from
// the end of the previous one. All lengths are counted in runes.
package chunker

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"unicode"

	"github.com/poiesic/docent/core"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 150

// DefaultSeparators lists split points from coarsest to finest.
var DefaultSeparators = []string{"\n\n", "\n", ".", " "}

// Splitter cuts documents into chunks.
// It is immutable after construction and safe for concurrent use.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
	logger     *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk length in runes. Non-positive values are ignored.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithChunkOverlap sets how many runes consecutive chunks may share.
// Negative values are ignored.
func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator list, coarsest first.
// Character-level splitting always remains as the last resort.
func WithSeparators(separators ...string) Option {
	return func(s *Splitter) {
		if len(separators) > 0 {
			s.separators = slices.Clone(separators)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: slices.Clone(DefaultSeparators),
		logger:     slog.Default().With("component", "chunker"),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't reach chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the effective maximum chunk length.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// ChunkOverlap returns the effective overlap.
func (s *Splitter) ChunkOverlap() int {
	return s.overlap
}

// Split cuts every document into chunks, in document order.
// Documents without content produce no chunks. Documents that fail
// validation are skipped.
func (s *Splitter) Split(docs []core.Document) []core.Chunk {
	var chunks []core.Chunk
	for i := range docs {
		chunks = append(chunks, s.SplitDocument(&docs[i])...)
	}
	return chunks
}

// SplitDocument cuts a single document into chunks.
func (s *Splitter) SplitDocument(doc *core.Document) []core.Chunk {
	if err := core.ValidateDocument(doc); err != nil {
		s.logger.Warn("skipping document", "err", err)
		return nil
	}

	pieces := s.split([]rune(doc.Content), 0, s.separators)

	chunks := make([]core.Chunk, 0, len(pieces))
	for _, p := range pieces {
		p, ok := trim(p)
		if !ok {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Source:   doc.Source,
			Page:     doc.Page,
			Position: len(chunks),
			Start:    p.start,
			Text:     string(p.text),
			Metadata: chunkMetadata(doc),
		})
	}

	s.logger.Debug("split document",
		"source", doc.Source,
		"page", doc.Page,
		"runes", len([]rune(doc.Content)),
		"chunks", len(chunks))
	return chunks
}

func chunkMetadata(doc *core.Document) map[string]string {
	md := maps.Clone(doc.Metadata)
	if md == nil {
		md = make(map[string]string, 2)
	}
	md["source"] = doc.Source
	if doc.Page > 0 {
		md["page"] = strconv.Itoa(doc.Page)
	}
	return md
}

// piece is a contiguous run of the document with its rune offset.
type piece struct {
	start int
	text  []rune
}

func (s *Splitter) split(text []rune, start int, separators []string) []piece {
	var sep []rune
	var finer []string
	for i, candidate := range separators {
		if candidate == "" || indexRunes(text, []rune(candidate), 0) >= 0 {
			sep = []rune(candidate)
			finer = separators[i+1:]
			break
		}
	}

	var final, good []piece
	for _, p := range splitKeepingSeparator(text, start, sep) {
		if len(p.text) < s.chunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(sep) == 0 {
			// A single rune; nothing finer exists.
			final = append(final, p)
			continue
		}
		final = append(final, s.split(p.text, p.start, finer)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs consecutive pieces into chunks no longer than chunkSize.
// After emitting a chunk, pieces are dropped from the front of the window
// until at most overlap runes remain.
func (s *Splitter) merge(pieces []piece) []piece {
	var out, window []piece
	total := 0

	for _, p := range pieces {
		n := len(p.text)
		if total+n > s.chunkSize && len(window) > 0 {
			if c, ok := join(window); ok {
				out = append(out, c)
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= len(window[0].text)
				window = window[1:]
			}
		}
		window = append(window, p)
		total += n
	}

	if c, ok := join(window); ok {
		out = append(out, c)
	}
	return out
}

// join concatenates contiguous pieces and trims surrounding whitespace.
func join(window []piece) (piece, bool) {
	if len(window) == 0 {
		return piece{}, false
	}
	var text []rune
	for _, p := range window {
		text = append(text, p.text...)
	}
	return trim(piece{start: window[0].start, text: text})
}

func trim(p piece) (piece, bool) {
	lo, hi := 0, len(p.text)
	for lo < hi && unicode.IsSpace(p.text[lo]) {
		lo++
	}
	for hi > lo && unicode.IsSpace(p.text[hi-1]) {
		hi--
	}
	if lo == hi {
		return piece{}, false
	}
	return piece{start: p.start + lo, text: p.text[lo:hi]}, true
}

// splitKeepingSeparator cuts text after every occurrence of sep.
// An empty sep cuts between every rune.
func splitKeepingSeparator(text []rune, start int, sep []rune) []piece {
	if len(sep) == 0 {
		pieces := make([]piece, len(text))
		for i := range text {
			pieces[i] = piece{start: start + i, text: text[i : i+1]}
		}
		return pieces
	}

	var pieces []piece
	last := 0
	for i := indexRunes(text, sep, 0); i >= 0; i = indexRunes(text, sep, last) {
		end := i + len(sep)
		pieces = append(pieces, piece{start: start + last, text: text[last:end]})
		last = end
	}
	if last < len(text) {
		pieces = append(pieces, piece{start: start + last, text: text[last:]})
	}
	return pieces
}

// indexRunes returns the index of the first occurrence of sep in text at or after from, or -1.
func indexRunes(text, sep []rune, from int) int {
	if len(sep) == 0 {
		return from
	}
	for i := from; i+len(sep) <= len(text); i++ {
		if slices.Equal(text[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
