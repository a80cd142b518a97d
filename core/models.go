package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EntryID derives the content-hash identity of a chunk of text from a given source.
// Re-ingesting the same passage from the same source yields the same ID.
func EntryID(source, text string) ID {
	return IDFromContent(source + "\x00" + text)
}

// Document is the loaded text of one source unit (a page of a PDF, a whole text file).
type Document struct {
	Source   string // File name or path the content came from
	Page     int    // 1-based page number, 0 when the source has no pages
	Content  string
	Metadata map[string]string
}

// Chunk is a bounded passage cut from a Document.
type Chunk struct {
	Source   string
	Page     int
	Position int // Ordinal of the chunk within its document
	Start    int // Rune offset of Text inside the document content
	Text     string
	Metadata map[string]string
}

// End returns the rune offset just past the chunk inside its document.
func (c Chunk) End() int {
	return c.Start + len([]rune(c.Text))
}

type IndexEntry struct {
	Id         ID
	Seq        uint64 // Insertion ordinal, used to break score ties
	Source     string
	Page       int
	Position   int
	Text       string
	Vector     []float32
	Metadata   map[string]string
	InsertedAt time.Time
}

type ScoredEntry struct {
	Entry *IndexEntry
	Score float32 // Relevance in [0,1], higher is more relevant
}

// RetrievedContext is the filtered result of one retrieval, ordered by
// descending relevance. An empty context means nothing relevant was found.
type RetrievedContext struct {
	Query   string
	Entries []ScoredEntry
}

func (rc RetrievedContext) IsEmpty() bool {
	return len(rc.Entries) == 0
}

// Texts returns the passage texts in retrieved order.
func (rc RetrievedContext) Texts() []string {
	texts := make([]string, len(rc.Entries))
	for i, e := range rc.Entries {
		texts[i] = e.Entry.Text
	}
	return texts
}

// Manifest describes a persisted index snapshot.
type Manifest struct {
	Generation     uint64
	Count          uint64
	EmbeddingModel string
	Dimension      int
	FormatVersion  int
	UpdatedAt      time.Time
}
