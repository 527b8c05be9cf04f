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

	"folio/internal/inventory/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

const copiesTable = "copies"

var pgDialect = goqu.Dialect("postgres")

// PostgresStore persists copies in PostgreSQL.
//
// Status changes go through Execute, which locks the row with
// SELECT ... FOR UPDATE so validate and mutate observe and write one
// consistent row version. That is the per-copy mutual-exclusion scope the
// engine's compare-and-set transitions rely on; different copies never block
// each other.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed copy store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type copyRow struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Barcode   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *PostgresStore) CreateIfBarcodeAvailable(ctx context.Context, copy *models.Copy) error {
	query, args, err := pgDialect.
		Insert(copiesTable).
		Cols("id", "item_id", "barcode", "status", "created_at", "updated_at").
		Vals(goqu.Vals{
			uuid.UUID(copy.ID), uuid.UUID(copy.ItemID), copy.Barcode,
			copy.Status.String(), copy.CreatedAt, copy.UpdatedAt,
		}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert copy: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert copy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("barcode %q: %w", copy.Barcode, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	return s.findOne(ctx, goqu.C("id").Eq(uuid.UUID(copyID)), copyID.String())
}

func (s *PostgresStore) FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	return s.findOne(ctx, goqu.C("barcode").Eq(barcode), barcode)
}

func (s *PostgresStore) ListByItem(ctx context.Context, itemID id.ItemID) ([]*models.Copy, error) {
	return s.list(ctx, goqu.C("item_id").Eq(uuid.UUID(itemID)))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.CopyStatus) ([]*models.Copy, error) {
	return s.list(ctx, goqu.C("status").Eq(status.String()))
}

// Execute locks the copy row, runs validate, applies mutate, and writes the
// row back, all within one transaction. Validate errors abort the
// transaction and are returned unchanged.
func (s *PostgresStore) Execute(
	ctx context.Context,
	copyID id.CopyID,
	validate func(*models.Copy) error,
	mutate func(*models.Copy),
) (*models.Copy, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin copy transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := selectCopies(goqu.C("id").Eq(uuid.UUID(copyID))).
		ForUpdate(exp.Wait).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select copy for update: %w", err)
	}

	copy, err := scanCopy(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("copy %s: %w", copyID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select copy for update: %w", err)
	}

	if err := validate(copy); err != nil {
		return nil, err
	}
	mutate(copy)

	update, updateArgs, err := pgDialect.
		Update(copiesTable).
		Set(goqu.Record{"status": copy.Status.String(), "updated_at": copy.UpdatedAt}).
		Where(goqu.C("id").Eq(uuid.UUID(copyID))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update copy: %w", err)
	}
	if _, err := tx.Exec(ctx, update, updateArgs...); err != nil {
		return nil, fmt.Errorf("update copy: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit copy transaction: %w", err)
	}
	return copy, nil
}

func (s *PostgresStore) findOne(ctx context.Context, cond exp.Expression, label string) (*models.Copy, error) {
	query, args, err := selectCopies(cond).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select copy: %w", err)
	}
	copy, err := scanCopy(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("copy %s: %w", label, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select copy: %w", err)
	}
	return copy, nil
}

func (s *PostgresStore) list(ctx context.Context, cond exp.Expression) ([]*models.Copy, error) {
	query, args, err := selectCopies(cond).Order(goqu.C("barcode").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list copies: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}
	defer rows.Close()

	var out []*models.Copy
	for rows.Next() {
		copy, err := scanCopy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan copy: %w", err)
		}
		out = append(out, copy)
	}
	return out, rows.Err()
}

func selectCopies(cond exp.Expression) *goqu.SelectDataset {
	return pgDialect.
		From(copiesTable).
		Select("id", "item_id", "barcode", "status", "created_at", "updated_at").
		Where(cond)
}

func scanCopy(row pgx.Row) (*models.Copy, error) {
	var r copyRow
	if err := row.Scan(&r.ID, &r.ItemID, &r.Barcode, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	status, err := models.ParseCopyStatus(r.Status)
	if err != nil {
		return nil, err
	}
	return &models.Copy{
		ID:      id.CopyID(r.ID),
		ItemID:  id.ItemID(r.ItemID),
		Barcode: r.Barcode,
		Status:  status,
		Audit:   id.Audit{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}, nil
}
