// Package httptransport is the thin HTTP layer over the circulation engine.
// Handlers decode input, delegate to the services, and map coded errors to
// statuses; no business logic lives here.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	catalogservice "folio/internal/catalog/service"
	inventoryservice "folio/internal/inventory/service"
	loanservice "folio/internal/loan/service"
	"folio/internal/platform/middleware"
	restrictionservice "folio/internal/restriction/service"
)

// Handler carries the engine services the routes delegate to.
type Handler struct {
	catalog           *catalogservice.Service
	inventory         *inventoryservice.Service
	loans             *loanservice.Service
	restrictions      *restrictionservice.Service
	defaultLoanPeriod time.Duration
}

// NewHandler wires the transport layer to the engine services.
// defaultLoanPeriod fills the due date when a loan request omits one.
func NewHandler(
	catalog *catalogservice.Service,
	inventory *inventoryservice.Service,
	loans *loanservice.Service,
	restrictions *restrictionservice.Service,
	defaultLoanPeriod time.Duration,
) *Handler {
	return &Handler{
		catalog:           catalog,
		inventory:         inventory,
		loans:             loans,
		restrictions:      restrictions,
		defaultLoanPeriod: defaultLoanPeriod,
	}
}

// NewRouter wires all endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Post("/items", h.handleRegisterItem)
	r.Get("/items/{itemID}", h.handleGetItem)
	r.Get("/items/{itemID}/copies", h.handleCopiesByItem)

	r.Post("/copies", h.handleRegisterCopy)
	r.Get("/copies", h.handleCopiesByStatus)
	r.Get("/copies/{copyID}", h.handleGetCopy)
	r.Post("/copies/{copyID}/lost", h.handleMarkLost)
	r.Post("/copies/{copyID}/damaged", h.handleMarkDamaged)
	r.Post("/copies/{copyID}/reserve", h.handleMarkReserved)
	r.Post("/copies/{copyID}/release", h.handleReleaseReserved)

	r.Post("/loans", h.handleIssueLoan)
	r.Get("/loans/overdue", h.handleOverdueLoans)
	r.Get("/loans/{loanID}", h.handleGetLoan)
	r.Post("/loans/{loanID}/extend", h.handleExtendLoan)
	r.Post("/loans/{loanID}/return", h.handleReturnLoan)

	r.Get("/users/{userID}/loans", h.handleLoansForUser)
	r.Get("/users/{userID}/restricted", h.handleIsRestricted)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
