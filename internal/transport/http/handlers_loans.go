package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "folio/pkg/domain"
	dErrors "folio/pkg/domain-errors"
	"folio/pkg/platform/httputil"
	"folio/pkg/requestcontext"
)

type issueLoanRequest struct {
	UserID string     `json:"user_id"`
	CopyID string     `json:"copy_id"`
	DueAt  *time.Time `json:"due_at,omitempty"`
}

func (h *Handler) handleIssueLoan(w http.ResponseWriter, r *http.Request) {
	var req issueLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	copyID, err := id.ParseCopyID(req.CopyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	dueAt := requestcontext.Now(r.Context()).Add(h.defaultLoanPeriod)
	if req.DueAt != nil {
		dueAt = *req.DueAt
	}

	loan, err := h.loans.IssueLoan(r.Context(), userID, copyID, dueAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, loan)
}

type extendLoanRequest struct {
	DueAt time.Time `json:"due_at"`
}

func (h *Handler) handleExtendLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req extendLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}
	loan, err := h.loans.ExtendLoan(r.Context(), loanID, req.DueAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

type returnLoanRequest struct {
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

func (h *Handler) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req returnLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return
	}
	returnedAt := requestcontext.Now(r.Context())
	if req.ReturnedAt != nil {
		returnedAt = *req.ReturnedAt
	}
	loan, err := h.loans.ReturnLoan(r.Context(), loanID, returnedAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	loan, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) handleLoansForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var loans any
	if r.URL.Query().Get("active") == "true" {
		loans, err = h.loans.ActiveLoansForUser(r.Context(), userID)
	} else {
		loans, err = h.loans.HistoryForUser(r.Context(), userID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

func (h *Handler) handleOverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.OverdueLoans(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

type restrictedResponse struct {
	UserID     string `json:"user_id"`
	Restricted bool   `json:"restricted"`
}

func (h *Handler) handleIsRestricted(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	restricted, err := h.restrictions.IsRestricted(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, restrictedResponse{UserID: userID.String(), Restricted: restricted})
}
