// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/docent/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Loader produces the documents of a corpus.
type Loader interface {
	Load(ctx context.Context) ([]core.Document, error)
}

// DirectoryLoader loads every supported file below a directory.
// Hidden files and directories are skipped.
type DirectoryLoader struct {
	dir    string
	logger *slog.Logger
}

func NewDirectoryLoader(dir string, logger *slog.Logger) *DirectoryLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryLoader{
		dir:    dir,
		logger: logger.With("component", "directory-loader"),
	}
}

// Dir returns the directory being loaded.
func (l *DirectoryLoader) Dir() string {
	return l.dir
}

// Load reads the directory in lexical path order. A file that fails to
// load aborts the whole load.
func (l *DirectoryLoader) Load(ctx context.Context) ([]core.Document, error) {
	var paths []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != l.dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", l.dir, err)
	}
	sort.Strings(paths)

	var docs []core.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded file", "path", path, "documents", len(loaded))
		docs = append(docs, loaded...)
	}

	l.logger.Info("loaded directory", "dir", l.dir, "files", len(paths), "documents", len(docs))
	return docs, nil
}

// Supported reports whether LoadFile can read the file at path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// LoadFile reads a single file. PDF files produce one document per page,
// text and markdown files a single document with page 0.
func LoadFile(ctx context.Context, path string) ([]core.Document, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var loaded []schema.Document
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		loaded, err = documentloaders.NewPDF(f, info.Size()).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading pdf %s: %w", path, err)
		}
	} else {
		loaded, err = documentloaders.NewText(f).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	source := filepath.Base(path)
	paged := len(loaded) > 1 || strings.EqualFold(filepath.Ext(path), ".pdf")
	docs := make([]core.Document, 0, len(loaded))
	for i, d := range loaded {
		page := 0
		if paged {
			page = pageNumber(d.Metadata, i+1)
		}
		docs = append(docs, core.Document{
			Source:   source,
			Page:     page,
			Content:  d.PageContent,
			Metadata: map[string]string{"path": path},
		})
	}
	return docs, nil
}

// pageNumber reads the 1-based page number the PDF loader records,
// falling back to the document's position.
func pageNumber(metadata map[string]any, fallback int) int {
	switch v := metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
