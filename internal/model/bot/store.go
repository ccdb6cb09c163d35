package bot

import "context"

// Store exposes bot configuration lookup for HTTP handlers. The dashboard
// that writes these records lives outside this service; the widget side only
// ever reads.
type Store interface {
	List(ctx context.Context) ([]Bot, error)
	FindByID(ctx context.Context, id string) (Bot, bool, error)
}

// MemoryStore implements Store with an in-memory slice, suitable for
// single-node deployments and tests.
type MemoryStore struct {
	items []Bot
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied bots.
func NewMemoryStore(items []Bot) *MemoryStore {
	return &MemoryStore{items: append([]Bot(nil), items...)}
}

// List returns the configured bot list.
func (s *MemoryStore) List(_ context.Context) ([]Bot, error) {
	return append([]Bot(nil), s.items...), nil
}

// FindByID looks up a bot by identifier.
func (s *MemoryStore) FindByID(_ context.Context, id string) (Bot, bool, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return Bot{}, false, nil
}
