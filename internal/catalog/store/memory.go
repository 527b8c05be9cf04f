package store

import (
	"context"
	"fmt"
	"sync"

	"folio/internal/catalog/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

// InMemory keeps catalog items in a mutex-guarded map.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.ItemID]*models.Item
}

// NewInMemory constructs an empty in-memory item store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.ItemID]*models.Item)}
}

func (s *InMemory) Create(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *item
	s.items[item.ID] = &dup
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, sentinel.ErrNotFound)
	}
	dup := *item
	return &dup, nil
}

func (s *InMemory) Exists(ctx context.Context, itemID id.ItemID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[itemID]
	return ok, nil
}
