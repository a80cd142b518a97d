package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		assert.Equal(t, DefaultChunkSize, s.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, s.ChunkOverlap())
		assert.Equal(t, DefaultSeparators, s.separators)
	})

	t.Run("custom values", func(t *testing.T) {
		s := New(WithChunkSize(500), WithChunkOverlap(50), WithSeparators("\n", " "))
		assert.Equal(t, 500, s.ChunkSize())
		assert.Equal(t, 50, s.ChunkOverlap())
		assert.Equal(t, []string{"\n", " "}, s.separators)
	})

	t.Run("overlap reaching chunk size is reduced", func(t *testing.T) {
		s := New(WithChunkSize(100), WithChunkOverlap(100))
		assert.Equal(t, 25, s.ChunkOverlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithChunkOverlap(-1), WithSeparators())
		assert.Equal(t, DefaultChunkSize, s.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, s.ChunkOverlap())
		assert.Equal(t, DefaultSeparators, s.separators)
	})
}

// assertWellFormed checks the size bound and that every chunk is the exact
// substring of its document at the recorded offset.
func assertWellFormed(t *testing.T, doc core.Document, chunks []core.Chunk, size int) {
	t.Helper()
	content := []rune(doc.Content)
	for i, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		assert.LessOrEqual(t, n, size, "chunk %d too long", i)
		assert.NotEmpty(t, strings.TrimSpace(c.Text), "chunk %d empty", i)
		require.LessOrEqual(t, c.End(), len(content))
		assert.Equal(t, string(content[c.Start:c.End()]), c.Text, "chunk %d offset", i)
		assert.Equal(t, i, c.Position)
		assert.Equal(t, doc.Source, c.Source)
	}
}

func TestSplit_EmptyDocuments(t *testing.T) {
	s := New()
	docs := []core.Document{
		{Source: "empty.txt"},
		{Source: "blank.txt", Content: "  \n\n\t "},
	}

	assert.Empty(t, s.Split(docs))
}

func TestSplit_SmallDocument(t *testing.T) {
	s := New(WithChunkSize(100), WithChunkOverlap(10))
	doc := core.Document{Source: "a.txt", Content: "\n  Brazzaville is the capital.  \n"}

	chunks := s.Split([]core.Document{doc})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Brazzaville is the capital.", chunks[0].Text)
	assert.Equal(t, 3, chunks[0].Start)
	assertWellFormed(t, doc, chunks, 100)
}

func TestSplit_PrefersParagraphs(t *testing.T) {
	s := New(WithChunkSize(20), WithChunkOverlap(5))
	doc := core.Document{Source: "a.txt", Content: "Para one text.\n\nPara two text."}

	chunks := s.Split([]core.Document{doc})
	require.Len(t, chunks, 2)
	assert.Equal(t, "Para one text.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, "Para two text.", chunks[1].Text)
	assert.Equal(t, 16, chunks[1].Start)
}

func TestSplit_SizeBound(t *testing.T) {
	words := []string{"Congo", "river", "Brazzaville", "forest", "Pointe-Noire", "Sangha", "Likouala", "basin"}
	var b strings.Builder
	for i := range 600 {
		b.WriteString(words[i%len(words)])
		switch {
		case i%97 == 96:
			b.WriteString(".\n\n")
		case i%31 == 30:
			b.WriteString(".\n")
		case i%11 == 10:
			b.WriteString(". ")
		default:
			b.WriteString(" ")
		}
	}
	doc := core.Document{Source: "congo.pdf", Page: 2, Content: b.String()}

	for _, size := range []int{40, 100, 500} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			s := New(WithChunkSize(size), WithChunkOverlap(size/10))
			chunks := s.Split([]core.Document{doc})
			require.NotEmpty(t, chunks)
			assertWellFormed(t, doc, chunks, size)
		})
	}
}

func TestSplit_Overlap(t *testing.T) {
	var words []string
	for i := range 100 {
		words = append(words, fmt.Sprintf("w%03d", i))
	}
	doc := core.Document{Source: "words.txt", Content: strings.Join(words, " ")}

	s := New(WithChunkSize(50), WithChunkOverlap(10))
	chunks := s.Split([]core.Document{doc})
	require.Greater(t, len(chunks), 2)
	assertWellFormed(t, doc, chunks, 50)

	assert.Equal(t, "w000", chunks[0].Text[:4])
	for i := 1; i < len(chunks); i++ {
		prev, next := chunks[i-1], chunks[i]
		assert.Greater(t, next.Start, prev.Start)
		assert.Less(t, next.Start, prev.End(), "chunk %d does not overlap its predecessor", i)
		assert.LessOrEqual(t, prev.End()-next.Start, 10)
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Text, "w099"))
}

func TestSplit_NoOverlap(t *testing.T) {
	doc := core.Document{Source: "a.txt", Content: "one two three four five six seven eight nine ten"}

	s := New(WithChunkSize(10), WithChunkOverlap(0))
	chunks := s.Split([]core.Document{doc})
	assertWellFormed(t, doc, chunks, 10)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].Start, chunks[i-1].End())
	}
}

func TestSplit_CharacterFallback(t *testing.T) {
	doc := core.Document{Source: "a.txt", Content: strings.Repeat("x", 250)}

	s := New(WithChunkSize(100), WithChunkOverlap(0))
	chunks := s.Split([]core.Document{doc})
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 100)
	assert.Len(t, chunks[1].Text, 100)
	assert.Len(t, chunks[2].Text, 50)
	assert.Equal(t, []int{0, 100, 200}, []int{chunks[0].Start, chunks[1].Start, chunks[2].Start})
}

func TestSplit_CountsRunes(t *testing.T) {
	doc := core.Document{Source: "a.txt", Content: strings.Repeat("é", 30)}

	s := New(WithChunkSize(10), WithChunkOverlap(0))
	chunks := s.Split([]core.Document{doc})
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, 10, utf8.RuneCountInString(c.Text))
	}
	assertWellFormed(t, doc, chunks, 10)
}

func TestSplit_Metadata(t *testing.T) {
	docs := []core.Document{
		{Source: "congo.pdf", Page: 4, Content: "Page four text.", Metadata: map[string]string{"title": "Congo"}},
		{Source: "notes.txt", Content: "Notes text."},
		{Content: "no source"},
	}

	chunks := New().Split(docs)
	require.Len(t, chunks, 2)

	assert.Equal(t, "congo.pdf", chunks[0].Source)
	assert.Equal(t, 4, chunks[0].Page)
	assert.Equal(t, map[string]string{"title": "Congo", "source": "congo.pdf", "page": "4"}, chunks[0].Metadata)

	assert.Equal(t, "notes.txt", chunks[1].Source)
	assert.Equal(t, 0, chunks[1].Position)
	assert.Equal(t, map[string]string{"source": "notes.txt"}, chunks[1].Metadata)

	// Chunk metadata is a copy.
	chunks[0].Metadata["title"] = "changed"
	assert.Equal(t, "Congo", docs[0].Metadata["title"])
}

func TestLookup(t *testing.T) {
	p, err := Lookup("AdHoc")
	require.NoError(t, err)
	assert.Equal(t, AdHoc, p)

	p, err = Lookup(" bulk ")
	require.NoError(t, err)
	assert.Equal(t, Bulk, p)

	_, err = Lookup("huge")
	assert.Error(t, err)
}

func TestNewFromPreset(t *testing.T) {
	s := NewFromPreset(AdHoc)
	assert.Equal(t, 500, s.ChunkSize())
	assert.Equal(t, 50, s.ChunkOverlap())

	s = NewFromPreset(Bulk, WithChunkOverlap(0))
	assert.Equal(t, 1000, s.ChunkSize())
	assert.Equal(t, 0, s.ChunkOverlap())
}
