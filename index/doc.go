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


// Package index holds chunk embeddings in memory and answers nearest
// neighbour queries over them.
//
// A VectorIndex is built from chunks with Create, grown with Add and
// queried with Search. Vectors are normalized to unit length when they
// enter the index, and relevance is derived from Euclidean distance:
//
//	relevance = 1 - ||q - v|| / sqrt(2)
//
// which maps identical directions to 1 and orthogonal ones to 0.
// Scores are clamped to [0, 1]. Equal scores keep insertion order.
//
// # Adding
//
// Add embeds every new chunk before touching the index, so a failed
// embedding call leaves the index exactly as it was. Chunks whose content
// hash (source plus text) is already present are skipped. Embedding runs
// in batches on an ants worker pool.
//
// # Persistence
//
// Save writes a full snapshot to a storage.EntryRepository, Sync appends
// only the entries the store has not seen yet, and Load rebuilds an index
// from a snapshot. A snapshot written with a different embedding model is
// rejected, as are snapshots that cannot be read back completely. Both
// cases wrap core.ErrIndexCorrupt.
//
// # Concurrency
//
// Searches may run concurrently with each other and with an Add; writers
// are serialized. Entries are immutable once added.
package index
