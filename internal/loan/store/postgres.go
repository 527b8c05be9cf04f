package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio/internal/loan/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

const loansTable = "loans"

var pgDialect = goqu.Dialect("postgres")

// PostgresStore persists loans in PostgreSQL. Execute locks the loan row
// with SELECT ... FOR UPDATE, giving status changes the same
// compare-and-set semantics as the in-memory store's mutex.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed loan store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, loan *models.Loan) error {
	query, args, err := pgDialect.
		Insert(loansTable).
		Cols("id", "user_id", "copy_id", "item_id", "loaned_at", "due_at",
			"returned_at", "penalty_cents", "status", "created_at", "updated_at").
		Vals(goqu.Vals{
			uuid.UUID(loan.ID), uuid.UUID(loan.UserID), uuid.UUID(loan.CopyID), uuid.UUID(loan.ItemID),
			loan.LoanedAt, loan.DueAt, loan.ReturnedAt, penaltyCents(loan.Penalty),
			loan.Status.String(), loan.CreatedAt, loan.UpdatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert loan: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	query, args, err := selectLoans(goqu.C("id").Eq(uuid.UUID(loanID))).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select loan: %w", err)
	}
	loan, err := scanLoan(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", loanID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select loan: %w", err)
	}
	return loan, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	return s.list(ctx, goqu.C("user_id").Eq(uuid.UUID(userID)))
}

func (s *PostgresStore) ListActiveByUser(ctx context.Context, userID id.UserID) ([]*models.Loan, error) {
	return s.list(ctx, goqu.And(
		goqu.C("user_id").Eq(uuid.UUID(userID)),
		goqu.C("status").Eq(models.LoanStatusActive.String()),
	))
}

func (s *PostgresStore) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	return s.list(ctx, goqu.And(
		goqu.C("status").Eq(models.LoanStatusActive.String()),
		goqu.C("due_at").Lt(asOf),
	))
}

func (s *PostgresStore) FindActiveByCopy(ctx context.Context, copyID id.CopyID) (*models.Loan, error) {
	query, args, err := selectLoans(goqu.And(
		goqu.C("copy_id").Eq(uuid.UUID(copyID)),
		goqu.C("status").Eq(models.LoanStatusActive.String()),
	)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select active loan: %w", err)
	}
	loan, err := scanLoan(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active loan for copy %s: %w", copyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select active loan: %w", err)
	}
	return loan, nil
}

// Execute locks the loan row, runs validate, applies mutate, and writes the
// mutable fields back within one transaction.
func (s *PostgresStore) Execute(
	ctx context.Context,
	loanID id.LoanID,
	validate func(*models.Loan) error,
	mutate func(*models.Loan),
) (*models.Loan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin loan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := selectLoans(goqu.C("id").Eq(uuid.UUID(loanID))).
		ForUpdate(exp.Wait).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select loan for update: %w", err)
	}
	loan, err := scanLoan(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", loanID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select loan for update: %w", err)
	}

	if err := validate(loan); err != nil {
		return nil, err
	}
	mutate(loan)

	update, updateArgs, err := pgDialect.
		Update(loansTable).
		Set(goqu.Record{
			"due_at":        loan.DueAt,
			"returned_at":   loan.ReturnedAt,
			"penalty_cents": penaltyCents(loan.Penalty),
			"status":        loan.Status.String(),
			"updated_at":    loan.UpdatedAt,
		}).
		Where(goqu.C("id").Eq(uuid.UUID(loanID))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update loan: %w", err)
	}
	if _, err := tx.Exec(ctx, update, updateArgs...); err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit loan transaction: %w", err)
	}
	return loan, nil
}

func (s *PostgresStore) list(ctx context.Context, cond exp.Expression) ([]*models.Loan, error) {
	query, args, err := selectLoans(cond).
		Order(goqu.C("loaned_at").Desc(), goqu.C("id").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list loans: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}

func selectLoans(cond exp.Expression) *goqu.SelectDataset {
	return pgDialect.
		From(loansTable).
		Select("id", "user_id", "copy_id", "item_id", "loaned_at", "due_at",
			"returned_at", "penalty_cents", "status", "created_at", "updated_at").
		Where(cond)
}

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var (
		loanID, userID, copyID, itemID uuid.UUID
		loanedAt, dueAt                time.Time
		returnedAt                     *time.Time
		penalty                        *int64
		status                         string
		createdAt, updatedAt           time.Time
	)
	if err := row.Scan(&loanID, &userID, &copyID, &itemID, &loanedAt, &dueAt,
		&returnedAt, &penalty, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := models.ParseLoanStatus(status)
	if err != nil {
		return nil, err
	}
	loan := &models.Loan{
		ID:         id.LoanID(loanID),
		UserID:     id.UserID(userID),
		CopyID:     id.CopyID(copyID),
		ItemID:     id.ItemID(itemID),
		LoanedAt:   loanedAt,
		DueAt:      dueAt,
		ReturnedAt: returnedAt,
		Status:     parsed,
		Audit:      id.Audit{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
	if penalty != nil {
		p := models.Amount(*penalty)
		loan.Penalty = &p
	}
	return loan, nil
}

func penaltyCents(p *models.Amount) *int64 {
	if p == nil {
		return nil
	}
	cents := p.Cents()
	return &cents
}
