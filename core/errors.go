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


package core

import "errors"

var (
	// ErrEmptyCorpus indicates an index was requested over zero chunks.
	// Callers must supply documents before building.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrIndexCorrupt indicates a persisted index exists but cannot be loaded.
	// It is never recovered automatically.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrEmbeddingService indicates the embedding service call failed.
	ErrEmbeddingService = errors.New("embedding service failed")

	// ErrGeneration indicates the chat model call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptyContent indicates the text content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates the source identifier is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrMissingVector indicates an index entry has no embedding.
	ErrMissingVector = errors.New("vector cannot be empty")
)
