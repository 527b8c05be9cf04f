package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"folio/internal/inventory/models"
	"folio/internal/inventory/store"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/requestcontext"
)

// stubDirectory answers existence checks from a fixed set.
type stubDirectory struct {
	known map[id.ItemID]bool
}

func (d *stubDirectory) Exists(ctx context.Context, itemID id.ItemID) (bool, error) {
	return d.known[itemID], nil
}

type InventoryServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	items   *stubDirectory
	service *Service
	ctx     context.Context
	itemID  id.ItemID
}

func (s *InventoryServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.itemID = id.NewItemID()
	s.items = &stubDirectory{known: map[id.ItemID]bool{s.itemID: true}}
	s.service = New(s.store, s.items)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceSuite))
}

func (s *InventoryServiceSuite) register(barcode string) *models.Copy {
	copy, err := s.service.RegisterCopy(s.ctx, barcode, s.itemID)
	s.Require().NoError(err)
	return copy
}

func (s *InventoryServiceSuite) loaned(barcode string) *models.Copy {
	copy := s.register(barcode)
	loaned, err := s.service.TryMarkLoaned(s.ctx, copy.ID)
	s.Require().NoError(err)
	return loaned
}

// TestRegisterCopy verifies registration and its validation failures.
func (s *InventoryServiceSuite) TestRegisterCopy() {
	s.Run("registers an available copy", func() {
		copy := s.register("REG-0001")
		s.Equal(models.CopyStatusAvailable, copy.Status)
		s.Equal(s.itemID, copy.ItemID)
	})

	s.Run("rejects an unknown item", func() {
		_, err := s.service.RegisterCopy(s.ctx, "REG-0002", id.NewItemID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects an empty barcode", func() {
		_, err := s.service.RegisterCopy(s.ctx, "   ", s.itemID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a duplicate barcode and keeps the original", func() {
		original := s.register("REG-0003")

		_, err := s.service.RegisterCopy(s.ctx, "REG-0003", s.itemID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		found, err := s.service.GetCopy(s.ctx, original.ID)
		s.Require().NoError(err)
		s.Equal(original.ID, found.ID)
	})
}

// TestTryMarkLoaned verifies the compare-and-set lending transition.
func (s *InventoryServiceSuite) TestTryMarkLoaned() {
	s.Run("flips an available copy to loaned", func() {
		copy := s.register("CAS-0001")
		loaned, err := s.service.TryMarkLoaned(s.ctx, copy.ID)
		s.Require().NoError(err)
		s.Equal(models.CopyStatusLoaned, loaned.Status)
	})

	s.Run("an already loaned copy is a conflict", func() {
		copy := s.loaned("CAS-0002")
		_, err := s.service.TryMarkLoaned(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("a reserved copy is unavailable, not a race", func() {
		copy := s.register("CAS-0003")
		_, err := s.service.MarkReserved(s.ctx, copy.ID)
		s.Require().NoError(err)

		_, err = s.service.TryMarkLoaned(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCopyUnavailable))
	})

	s.Run("a lost copy is unavailable", func() {
		copy := s.register("CAS-0004")
		_, err := s.service.MarkLost(s.ctx, copy.ID)
		s.Require().NoError(err)

		_, err = s.service.TryMarkLoaned(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCopyUnavailable))
	})

	s.Run("an unknown copy is not found", func() {
		_, err := s.service.TryMarkLoaned(s.ctx, id.NewCopyID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestMarkReturned verifies the release transition.
func (s *InventoryServiceSuite) TestMarkReturned() {
	s.Run("releases a loaned copy", func() {
		copy := s.loaned("RET-0001")
		returned, err := s.service.MarkReturned(s.ctx, copy.ID)
		s.Require().NoError(err)
		s.Equal(models.CopyStatusAvailable, returned.Status)
	})

	s.Run("rejects a copy that is not loaned", func() {
		copy := s.register("RET-0002")
		_, err := s.service.MarkReturned(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

// TestWriteOffs verifies lost and damaged are explicit and terminal.
func (s *InventoryServiceSuite) TestWriteOffs() {
	s.Run("marks an available copy lost", func() {
		copy := s.register("OFF-0001")
		lost, err := s.service.MarkLost(s.ctx, copy.ID)
		s.Require().NoError(err)
		s.Equal(models.CopyStatusLost, lost.Status)
	})

	s.Run("marks a loaned copy damaged", func() {
		copy := s.loaned("OFF-0002")
		damaged, err := s.service.MarkDamaged(s.ctx, copy.ID)
		s.Require().NoError(err)
		s.Equal(models.CopyStatusDamaged, damaged.Status)
	})

	s.Run("repeating a write-off is an invalid transition", func() {
		copy := s.register("OFF-0003")
		_, err := s.service.MarkLost(s.ctx, copy.ID)
		s.Require().NoError(err)

		_, err = s.service.MarkLost(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("a damaged copy cannot be marked lost", func() {
		copy := s.register("OFF-0004")
		_, err := s.service.MarkDamaged(s.ctx, copy.ID)
		s.Require().NoError(err)

		_, err = s.service.MarkLost(s.ctx, copy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

// TestReservations verifies the administrative hold cycle.
func (s *InventoryServiceSuite) TestReservations() {
	copy := s.register("RES-0001")

	reserved, err := s.service.MarkReserved(s.ctx, copy.ID)
	s.Require().NoError(err)
	s.Equal(models.CopyStatusReserved, reserved.Status)

	released, err := s.service.ReleaseReserved(s.ctx, copy.ID)
	s.Require().NoError(err)
	s.Equal(models.CopyStatusAvailable, released.Status)

	_, err = s.service.ReleaseReserved(s.ctx, copy.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

// TestQueries verifies the item and status views.
func (s *InventoryServiceSuite) TestQueries() {
	s.register("QRY-0001")
	loaned := s.loaned("QRY-0002")

	byItem, err := s.service.CopiesByItem(s.ctx, s.itemID)
	s.Require().NoError(err)
	s.Len(byItem, 2)

	byStatus, err := s.service.CopiesByStatus(s.ctx, models.CopyStatusLoaned)
	s.Require().NoError(err)
	s.Require().Len(byStatus, 1)
	s.Equal(loaned.ID, byStatus[0].ID)
}

// TestConcurrentTryMarkLoaned verifies exactly one concurrent caller wins the
// lending race.
func (s *InventoryServiceSuite) TestConcurrentTryMarkLoaned() {
	copy := s.register("RACE-0001")

	const racers = 16
	var wins atomic.Int32
	var conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.TryMarkLoaned(s.ctx, copy.ID)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(racers-1), conflicts.Load())
}
