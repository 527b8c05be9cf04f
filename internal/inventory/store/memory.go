package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"folio/internal/inventory/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

// InMemory keeps copies in a mutex-guarded map. It is the default store for
// development and unit tests; PostgresStore is the durable variant.
//
// Execute holds the store lock across validate and mutate, which gives every
// status change compare-and-set semantics: two concurrent TryMarkLoaned
// calls for one copy serialize here, and the second caller sees the already
// flipped status inside its validate callback.
type InMemory struct {
	mu        sync.RWMutex
	copies    map[id.CopyID]*models.Copy
	byBarcode map[string]id.CopyID
}

// NewInMemory constructs an empty in-memory copy store.
func NewInMemory() *InMemory {
	return &InMemory{
		copies:    make(map[id.CopyID]*models.Copy),
		byBarcode: make(map[string]id.CopyID),
	}
}

// CreateIfBarcodeAvailable inserts the copy unless its barcode is taken.
// Returns sentinel.ErrAlreadyUsed on a duplicate barcode.
func (s *InMemory) CreateIfBarcodeAvailable(ctx context.Context, copy *models.Copy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byBarcode[copy.Barcode]; taken {
		return fmt.Errorf("barcode %q: %w", copy.Barcode, sentinel.ErrAlreadyUsed)
	}
	s.copies[copy.ID] = clone(copy)
	s.byBarcode[copy.Barcode] = copy.ID
	return nil
}

// FindByID returns the copy or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copy, ok := s.copies[copyID]
	if !ok {
		return nil, fmt.Errorf("copy %s: %w", copyID, sentinel.ErrNotFound)
	}
	return clone(copy), nil
}

// FindByBarcode returns the copy registered under barcode or ErrNotFound.
func (s *InMemory) FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copyID, ok := s.byBarcode[barcode]
	if !ok {
		return nil, fmt.Errorf("barcode %q: %w", barcode, sentinel.ErrNotFound)
	}
	return clone(s.copies[copyID]), nil
}

// ListByItem returns every copy of the given item, ordered by barcode.
func (s *InMemory) ListByItem(ctx context.Context, itemID id.ItemID) ([]*models.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Copy
	for _, c := range s.copies {
		if c.ItemID == itemID {
			out = append(out, clone(c))
		}
	}
	sortByBarcode(out)
	return out, nil
}

// ListByStatus returns every copy currently in the given status, ordered by
// barcode.
func (s *InMemory) ListByStatus(ctx context.Context, status models.CopyStatus) ([]*models.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Copy
	for _, c := range s.copies {
		if c.Status == status {
			out = append(out, clone(c))
		}
	}
	sortByBarcode(out)
	return out, nil
}

// Execute runs validate and mutate on the copy under the store lock.
// If validate fails its error is returned unchanged and nothing is written.
// Returns the mutated copy on success, sentinel.ErrNotFound for unknown IDs.
func (s *InMemory) Execute(
	ctx context.Context,
	copyID id.CopyID,
	validate func(*models.Copy) error,
	mutate func(*models.Copy),
) (*models.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy, ok := s.copies[copyID]
	if !ok {
		return nil, fmt.Errorf("copy %s: %w", copyID, sentinel.ErrNotFound)
	}
	if err := validate(copy); err != nil {
		return nil, err
	}
	mutate(copy)
	return clone(copy), nil
}

func clone(c *models.Copy) *models.Copy {
	dup := *c
	return &dup
}

func sortByBarcode(copies []*models.Copy) {
	sort.Slice(copies, func(i, j int) bool {
		return copies[i].Barcode < copies[j].Barcode
	})
}
