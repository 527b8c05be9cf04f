//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	catalogmodels "folio/internal/catalog/models"
	catalogstore "folio/internal/catalog/store"
	"folio/internal/inventory/models"
	"folio/internal/inventory/store"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/sentinel"
	"folio/pkg/testutil/containers"
)

type PostgresCopyStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	items    *catalogstore.PostgresStore
	store    *store.PostgresStore
	itemID   id.ItemID
}

func TestPostgresCopyStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCopyStoreSuite))
}

func (s *PostgresCopyStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.items = catalogstore.NewPostgres(s.postgres.Pool)
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresCopyStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx))

	s.itemID = id.NewItemID()
	item, err := catalogmodels.NewItem(s.itemID, "Integration Testing in Go", "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(ctx, item))
}

func (s *PostgresCopyStoreSuite) newCopy(barcode string) *models.Copy {
	copy, err := models.NewCopy(id.NewCopyID(), s.itemID, barcode, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return copy
}

func (s *PostgresCopyStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	copy := s.newCopy("PGI-0001")
	s.Require().NoError(s.store.CreateIfBarcodeAvailable(ctx, copy))

	found, err := s.store.FindByID(ctx, copy.ID)
	s.Require().NoError(err)
	s.Equal(copy.Barcode, found.Barcode)
	s.Equal(models.CopyStatusAvailable, found.Status)

	byBarcode, err := s.store.FindByBarcode(ctx, "PGI-0001")
	s.Require().NoError(err)
	s.Equal(copy.ID, byBarcode.ID)

	_, err = s.store.FindByID(ctx, id.NewCopyID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresCopyStoreSuite) TestBarcodeUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfBarcodeAvailable(ctx, s.newCopy("PGI-0002")))

	err := s.store.CreateIfBarcodeAvailable(ctx, s.newCopy("PGI-0002"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresCopyStoreSuite) TestListings() {
	ctx := context.Background()
	for _, barcode := range []string{"PGI-0102", "PGI-0100", "PGI-0101"} {
		s.Require().NoError(s.store.CreateIfBarcodeAvailable(ctx, s.newCopy(barcode)))
	}

	copies, err := s.store.ListByItem(ctx, s.itemID)
	s.Require().NoError(err)
	s.Require().Len(copies, 3)
	s.Equal("PGI-0100", copies[0].Barcode)
	s.Equal("PGI-0102", copies[2].Barcode)

	available, err := s.store.ListByStatus(ctx, models.CopyStatusAvailable)
	s.Require().NoError(err)
	s.Len(available, 3)
}

func (s *PostgresCopyStoreSuite) TestExecuteRollsBackOnValidateError() {
	ctx := context.Background()
	copy := s.newCopy("PGI-0200")
	s.Require().NoError(s.store.CreateIfBarcodeAvailable(ctx, copy))

	_, err := s.store.Execute(ctx, copy.ID,
		func(c *models.Copy) error { return dErrors.New(dErrors.CodeConflict, "copy is already loaned") },
		func(c *models.Copy) { c.ApplyTransition(models.CopyStatusLoaned, time.Now()) },
	)
	s.Require().Error(err)

	found, err := s.store.FindByID(ctx, copy.ID)
	s.Require().NoError(err)
	s.Equal(models.CopyStatusAvailable, found.Status)
}

// TestConcurrentCheckAndSet verifies the row lock serializes racing flips and
// exactly one caller wins.
func (s *PostgresCopyStoreSuite) TestConcurrentCheckAndSet() {
	ctx := context.Background()
	copy := s.newCopy("PGI-0300")
	s.Require().NoError(s.store.CreateIfBarcodeAvailable(ctx, copy))

	const racers = 20
	var wins, losses atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, copy.ID,
				func(c *models.Copy) error {
					if c.Status != models.CopyStatusAvailable {
						return dErrors.New(dErrors.CodeConflict, "copy is already loaned")
					}
					return nil
				},
				func(c *models.Copy) { c.ApplyTransition(models.CopyStatusLoaned, time.Now()) },
			)
			if err != nil {
				losses.Add(1)
			} else {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(racers-1), losses.Load())
}
