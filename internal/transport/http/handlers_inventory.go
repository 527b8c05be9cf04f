package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	invmodels "folio/internal/inventory/models"
	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/httputil"
)

type registerCopyRequest struct {
	Barcode string `json:"barcode"`
	ItemID  string `json:"item_id"`
}

func (h *Handler) handleRegisterCopy(w http.ResponseWriter, r *http.Request) {
	var req registerCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}
	itemID, err := id.ParseItemID(req.ItemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copy, err := h.inventory.RegisterCopy(r.Context(), req.Barcode, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, copy)
}

func (h *Handler) handleGetCopy(w http.ResponseWriter, r *http.Request) {
	copyID, err := id.ParseCopyID(chi.URLParam(r, "copyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copy, err := h.inventory.GetCopy(r.Context(), copyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, copy)
}

func (h *Handler) handleCopiesByItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copies, err := h.inventory.CopiesByItem(r.Context(), itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, copies)
}

func (h *Handler) handleCopiesByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := invmodels.ParseCopyStatus(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copies, err := h.inventory.CopiesByStatus(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, copies)
}

func (h *Handler) handleMarkLost(w http.ResponseWriter, r *http.Request) {
	h.copyTransition(w, r, h.inventory.MarkLost)
}

func (h *Handler) handleMarkDamaged(w http.ResponseWriter, r *http.Request) {
	h.copyTransition(w, r, h.inventory.MarkDamaged)
}

func (h *Handler) handleMarkReserved(w http.ResponseWriter, r *http.Request) {
	h.copyTransition(w, r, h.inventory.MarkReserved)
}

func (h *Handler) handleReleaseReserved(w http.ResponseWriter, r *http.Request) {
	h.copyTransition(w, r, h.inventory.ReleaseReserved)
}

func (h *Handler) copyTransition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, copyID id.CopyID) (*invmodels.Copy, error),
) {
	copyID, err := id.ParseCopyID(chi.URLParam(r, "copyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copy, err := apply(r.Context(), copyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, copy)
}
