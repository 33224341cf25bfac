package technique

// Store exposes technique lookup for the selector and HTTP handlers.
type Store interface {
	List() []Technique
	FindByID(id string) (Technique, bool)
}

// MemoryStore implements Store over a fixed slice. It is never mutated after
// construction and may be shared by every session.
type MemoryStore struct {
	items []Technique
	index map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied techniques.
// Later duplicates of an id are ignored.
func NewMemoryStore(items []Technique) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int, len(items))}
	for _, item := range items {
		if _, dup := s.index[item.ID]; dup {
			continue
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item.clone())
	}
	return s
}

// List returns every technique in declaration order.
func (s *MemoryStore) List() []Technique {
	out := make([]Technique, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.clone())
	}
	return out
}

// FindByID looks up a technique by identifier.
func (s *MemoryStore) FindByID(id string) (Technique, bool) {
	i, ok := s.index[id]
	if !ok {
		return Technique{}, false
	}
	return s.items[i].clone(), true
}
