package chunker

import (
	"fmt"
	"strings"
)

// Preset is a named pair of chunking parameters.
type Preset struct {
	Name         string
	ChunkSize    int
	ChunkOverlap int
}

var (
	// AdHoc suits single documents added while the assistant is running.
	AdHoc = Preset{Name: "adhoc", ChunkSize: 500, ChunkOverlap: 50}

	// Bulk suits the initial ingestion of the whole document folder.
	Bulk = Preset{Name: "bulk", ChunkSize: 1000, ChunkOverlap: 150}
)

// Lookup resolves a preset by name, ignoring case.
func Lookup(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AdHoc.Name, "ad-hoc", "ad_hoc":
		return AdHoc, nil
	case Bulk.Name:
		return Bulk, nil
	}
	return Preset{}, fmt.Errorf("unknown chunking preset %q", name)
}

// Options returns the splitter options applying the preset.
func (p Preset) Options() []Option {
	return []Option{WithChunkSize(p.ChunkSize), WithChunkOverlap(p.ChunkOverlap)}
}

// NewFromPreset creates a splitter from a preset; extra options are applied after it.
func NewFromPreset(p Preset, opts ...Option) *Splitter {
	return New(append(p.Options(), opts...)...)
}
