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


// Package storage provides the durable layer under the vector index.
//
// The index itself lives in memory; this package defines how its entries
// are written to disk and read back. EntryRepository stores snapshots made
// of a manifest plus the entries it counts. A reader only ever sees the
// entries a committed manifest vouches for, so an interrupted write leaves
// the previous snapshot intact.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface:
//
//	repo, err := badger.NewRepository(path)  // returns storage.EntryRepository
//
// # Serialization
//
// Entries and manifests are encoded with mus-go serializers
// (EntryMUS, ManifestMUS). Vectors are stored as raw float32 values.
//
// # Usage
//
//	repo, err := badger.NewRepository("/var/lib/docent/index")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	manifest, err := repo.Manifest(ctx)
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
