//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	catalogmodels "folio/internal/catalog/models"
	catalogstore "folio/internal/catalog/store"
	invmodels "folio/internal/inventory/models"
	invstore "folio/internal/inventory/store"
	"folio/internal/loan/models"
	"folio/internal/loan/store"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
	"folio/pkg/testutil/containers"
)

type PostgresLoanStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	items    *catalogstore.PostgresStore
	copies   *invstore.PostgresStore
	store    *store.PostgresStore
	itemID   id.ItemID
	base     time.Time
}

func TestPostgresLoanStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLoanStoreSuite))
}

func (s *PostgresLoanStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.items = catalogstore.NewPostgres(s.postgres.Pool)
	s.copies = invstore.NewPostgres(s.postgres.Pool)
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresLoanStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx))
	s.base = time.Now().UTC().Truncate(time.Microsecond)

	s.itemID = id.NewItemID()
	item, err := catalogmodels.NewItem(s.itemID, "Database Internals", "Alex Petrov", s.base)
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(ctx, item))
}

// newLoan seeds a copy row and an active loan referencing it.
func (s *PostgresLoanStoreSuite) newLoan(userID id.UserID, barcode string, loanedAt time.Time) *models.Loan {
	ctx := context.Background()

	copy, err := invmodels.NewCopy(id.NewCopyID(), s.itemID, barcode, loanedAt)
	s.Require().NoError(err)
	s.Require().NoError(s.copies.CreateIfBarcodeAvailable(ctx, copy))

	loan, err := models.NewLoan(id.NewLoanID(), userID, copy.ID, s.itemID, loanedAt, loanedAt.AddDate(0, 0, 14))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, loan))
	return loan
}

func (s *PostgresLoanStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	loan := s.newLoan(id.NewUserID(), "PGL-0001", s.base)

	found, err := s.store.FindByID(ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(loan.UserID, found.UserID)
	s.True(found.IsActive())
	s.Nil(found.ReturnedAt)
	s.Nil(found.Penalty)

	_, err = s.store.FindByID(ctx, id.NewLoanID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLoanStoreSuite) TestOneActiveLoanPerCopy() {
	ctx := context.Background()
	loan := s.newLoan(id.NewUserID(), "PGL-0100", s.base)

	// A second active loan for the same copy must violate the partial
	// unique index.
	second, err := models.NewLoan(id.NewLoanID(), id.NewUserID(), loan.CopyID, s.itemID, s.base, s.base.AddDate(0, 0, 14))
	s.Require().NoError(err)
	s.Require().Error(s.store.Create(ctx, second))

	// After the first is returned, the copy can be lent again.
	_, err = s.store.Execute(ctx, loan.ID,
		func(l *models.Loan) error { return nil },
		func(l *models.Loan) { l.ApplyReturn(s.base.Add(time.Hour), 0, s.base.Add(time.Hour)) },
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, second))
}

func (s *PostgresLoanStoreSuite) TestExecuteReturn() {
	ctx := context.Background()
	loan := s.newLoan(id.NewUserID(), "PGL-0200", s.base)

	returnedAt := s.base.AddDate(0, 0, 16)
	updated, err := s.store.Execute(ctx, loan.ID,
		func(l *models.Loan) error { return l.CanReturn() },
		func(l *models.Loan) { l.ApplyReturn(returnedAt, 200, returnedAt) },
	)
	s.Require().NoError(err)
	s.False(updated.IsActive())

	found, err := s.store.FindByID(ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(models.LoanStatusReturned, found.Status)
	s.Require().NotNil(found.ReturnedAt)
	s.True(found.ReturnedAt.Equal(returnedAt))
	s.Require().NotNil(found.Penalty)
	s.Equal(models.Amount(200), *found.Penalty)
}

func (s *PostgresLoanStoreSuite) TestUserViewsAndOverdue() {
	ctx := context.Background()
	userID := id.NewUserID()

	old := s.newLoan(userID, "PGL-0300", s.base.AddDate(0, 0, -30))
	recent := s.newLoan(userID, "PGL-0301", s.base)
	s.newLoan(id.NewUserID(), "PGL-0302", s.base)

	history, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(recent.ID, history[0].ID)
	s.Equal(old.ID, history[1].ID)

	overdue, err := s.store.ListOverdue(ctx, s.base)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(old.ID, overdue[0].ID)

	active, err := s.store.FindActiveByCopy(ctx, recent.CopyID)
	s.Require().NoError(err)
	s.Equal(recent.ID, active.ID)
}
