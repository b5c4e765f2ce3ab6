package script

// Store exposes script retrieval for the controller and HTTP handlers.
type Store interface {
	List() []Script
	FindByID(id string) (Script, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Script
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied scripts.
func NewMemoryStore(items []Script) *MemoryStore {
	return &MemoryStore{items: append([]Script(nil), items...)}
}

// List returns the known scripts.
func (s *MemoryStore) List() []Script {
	return append([]Script(nil), s.items...)
}

// FindByID looks up a script by identifier.
func (s *MemoryStore) FindByID(id string) (Script, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Script{}, false
}
