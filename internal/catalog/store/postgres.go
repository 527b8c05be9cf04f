package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio/internal/catalog/models"
	id "folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

const itemsTable = "items"

var pgDialect = goqu.Dialect("postgres")

// PostgresStore persists catalog items in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed item store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, item *models.Item) error {
	query, args, err := pgDialect.
		Insert(itemsTable).
		Cols("id", "title", "author", "created_at", "updated_at").
		Vals(goqu.Vals{uuid.UUID(item.ID), item.Title, item.Author, item.CreatedAt, item.UpdatedAt}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert item: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	query, args, err := pgDialect.
		From(itemsTable).
		Select("id", "title", "author", "created_at", "updated_at").
		Where(goqu.C("id").Eq(uuid.UUID(itemID))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select item: %w", err)
	}

	var (
		rowID     uuid.UUID
		title     string
		author    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&rowID, &title, &author, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", itemID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	return &models.Item{
		ID:     id.ItemID(rowID),
		Title:  title,
		Author: author,
		Audit:  id.Audit{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}, nil
}

func (s *PostgresStore) Exists(ctx context.Context, itemID id.ItemID) (bool, error) {
	query, args, err := pgDialect.
		From(itemsTable).
		Select(goqu.L("1")).
		Where(goqu.C("id").Eq(uuid.UUID(itemID))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build item exists: %w", err)
	}

	var one int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("item exists: %w", err)
	}
	return true, nil
}
