// Package service implements the copy inventory: the single source of truth
// for a copy's availability status and the legality of status transitions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	inventorymetrics "folio/internal/inventory/metrics"
	"folio/internal/inventory/models"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/sentinel"
	"folio/pkg/requestcontext"
)

// CopyStore is the persistence collaborator for copies. Execute must hold a
// per-copy mutual-exclusion scope (store mutex or row lock) across validate
// and mutate so status changes are compare-and-set, never lost updates.
type CopyStore interface {
	CreateIfBarcodeAvailable(ctx context.Context, copy *models.Copy) error
	FindByID(ctx context.Context, copyID id.CopyID) (*models.Copy, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error)
	ListByItem(ctx context.Context, itemID id.ItemID) ([]*models.Copy, error)
	ListByStatus(ctx context.Context, status models.CopyStatus) ([]*models.Copy, error)
	Execute(ctx context.Context, copyID id.CopyID, validate func(*models.Copy) error, mutate func(*models.Copy)) (*models.Copy, error)
}

// ItemDirectory answers whether a catalog item exists. RegisterCopy refuses
// to create copies of unknown items.
type ItemDirectory interface {
	Exists(ctx context.Context, itemID id.ItemID) (bool, error)
}

// Service owns copy state. All transitions funnel through here.
type Service struct {
	copies  CopyStore
	items   ItemDirectory
	logger  *slog.Logger
	metrics *inventorymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *inventorymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the inventory service.
func New(copies CopyStore, items ItemDirectory, opts ...Option) *Service {
	s := &Service{copies: copies, items: items}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCopy creates a copy of an existing item with a unique barcode.
// The copy starts out available.
func (s *Service) RegisterCopy(ctx context.Context, barcode string, itemID id.ItemID) (*models.Copy, error) {
	barcode = strings.TrimSpace(barcode)

	exists, err := s.items.Exists(ctx, itemID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up item")
	}
	if !exists {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "item %s does not exist", itemID)
	}

	copy, err := models.NewCopy(id.NewCopyID(), itemID, barcode, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.copies.CreateIfBarcodeAvailable(ctx, copy); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "duplicate barcode %q", barcode)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register copy")
	}

	s.log(ctx, "copy registered", "copy_id", copy.ID.String(), "item_id", itemID.String(), "barcode", barcode)
	if s.metrics != nil {
		s.metrics.CopiesRegistered.Inc()
	}
	return copy, nil
}

// TryMarkLoaned flips an available copy to loaned. Exactly one of any set of
// concurrent callers succeeds; the rest get a conflict. A copy that is
// reserved, lost, or damaged is reported as unavailable rather than as a
// race, because retrying cannot help there.
func (s *Service) TryMarkLoaned(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	now := requestcontext.Now(ctx)
	copy, err := s.copies.Execute(ctx, copyID,
		func(c *models.Copy) error {
			switch c.Status {
			case models.CopyStatusAvailable:
				return nil
			case models.CopyStatusLoaned:
				return dErrors.New(dErrors.CodeConflict, "copy is already loaned")
			default:
				return dErrors.Newf(dErrors.CodeCopyUnavailable, "copy is %s", c.Status)
			}
		},
		func(c *models.Copy) {
			c.ApplyTransition(models.CopyStatusLoaned, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) && s.metrics != nil {
			s.metrics.TransitionConflicts.Inc()
		}
		return nil, s.translate(err, copyID)
	}
	return copy, nil
}

// MarkReturned moves a loaned copy back to available.
func (s *Service) MarkReturned(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	now := requestcontext.Now(ctx)
	copy, err := s.copies.Execute(ctx, copyID,
		func(c *models.Copy) error {
			if c.Status != models.CopyStatusLoaned {
				return dErrors.Newf(dErrors.CodeInvalidTransition, "copy is %s, not loaned", c.Status)
			}
			return nil
		},
		func(c *models.Copy) {
			c.ApplyTransition(models.CopyStatusAvailable, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, copyID)
	}
	return copy, nil
}

// MarkLost writes a copy off as lost. Lost is terminal; repeating the call
// fails with an invalid transition, never a silent success.
func (s *Service) MarkLost(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	return s.writeOff(ctx, copyID, models.CopyStatusLost)
}

// MarkDamaged writes a copy off as damaged. Same terminality rules as lost.
func (s *Service) MarkDamaged(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	return s.writeOff(ctx, copyID, models.CopyStatusDamaged)
}

// MarkReserved places an administrative hold on an available or loaned copy.
func (s *Service) MarkReserved(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	return s.transition(ctx, copyID, models.CopyStatusReserved)
}

// ReleaseReserved lifts an administrative hold, making the copy available.
func (s *Service) ReleaseReserved(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	now := requestcontext.Now(ctx)
	copy, err := s.copies.Execute(ctx, copyID,
		func(c *models.Copy) error {
			if c.Status != models.CopyStatusReserved {
				return dErrors.Newf(dErrors.CodeInvalidTransition, "copy is %s, not reserved", c.Status)
			}
			return nil
		},
		func(c *models.Copy) {
			c.ApplyTransition(models.CopyStatusAvailable, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, copyID)
	}
	return copy, nil
}

// GetCopy returns a copy by ID.
func (s *Service) GetCopy(ctx context.Context, copyID id.CopyID) (*models.Copy, error) {
	copy, err := s.copies.FindByID(ctx, copyID)
	if err != nil {
		return nil, s.translate(err, copyID)
	}
	return copy, nil
}

// CopiesByItem lists every copy of an item.
func (s *Service) CopiesByItem(ctx context.Context, itemID id.ItemID) ([]*models.Copy, error) {
	copies, err := s.copies.ListByItem(ctx, itemID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list copies by item")
	}
	return copies, nil
}

// CopiesByStatus lists every copy in a given status.
func (s *Service) CopiesByStatus(ctx context.Context, status models.CopyStatus) ([]*models.Copy, error) {
	copies, err := s.copies.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list copies by status")
	}
	return copies, nil
}

func (s *Service) writeOff(ctx context.Context, copyID id.CopyID, target models.CopyStatus) (*models.Copy, error) {
	copy, err := s.transition(ctx, copyID, target)
	if err != nil {
		return nil, err
	}
	s.log(ctx, "copy written off", "copy_id", copyID.String(), "status", target.String())
	if s.metrics != nil {
		s.metrics.CopiesWrittenOff.Inc()
	}
	return copy, nil
}

func (s *Service) transition(ctx context.Context, copyID id.CopyID, target models.CopyStatus) (*models.Copy, error) {
	now := requestcontext.Now(ctx)
	copy, err := s.copies.Execute(ctx, copyID,
		func(c *models.Copy) error {
			if err := c.CanTransition(target); err != nil {
				return dErrors.New(dErrors.CodeInvalidTransition, dErrors.MessageOf(err))
			}
			return nil
		},
		func(c *models.Copy) {
			c.ApplyTransition(target, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, copyID)
	}
	return copy, nil
}

// translate maps store sentinels onto coded domain errors; coded errors from
// validate callbacks pass through untouched.
func (s *Service) translate(err error, copyID id.CopyID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "copy %s not found", copyID)
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "copy store failure")
	}
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}
