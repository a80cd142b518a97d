package badger

import "github.com/poiesic/docent/storage"

// NewMemoryRepository creates an in-memory entry repository for testing.
// Closing the repository closes its backend.
func NewMemoryRepository() (storage.EntryRepository, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	repo := NewEntryRepository(backend)
	repo.ownsBackend = true
	return repo, nil
}
