// Package service implements the minimal catalog the circulation engine
// needs: registering items and answering existence checks for copy
// registration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"folio/internal/catalog/models"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/sentinel"
	"folio/pkg/requestcontext"
)

type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	Exists(ctx context.Context, itemID id.ItemID) (bool, error)
}

type Service struct {
	items  ItemStore
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(items ItemStore, opts ...Option) *Service {
	s := &Service{items: items}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterItem adds a title to the catalog.
func (s *Service) RegisterItem(ctx context.Context, title, author string) (*models.Item, error) {
	title = strings.TrimSpace(title)

	item, err := models.NewItem(id.NewItemID(), title, strings.TrimSpace(author), requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create item")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "item registered", "item_id", item.ID.String(), "title", title)
	}
	return item, nil
}

// GetItem returns an item by ID.
func (s *Service) GetItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "item %s not found", itemID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	return item, nil
}

// Exists reports whether the item is in the catalog.
func (s *Service) Exists(ctx context.Context, itemID id.ItemID) (bool, error) {
	return s.items.Exists(ctx, itemID)
}
