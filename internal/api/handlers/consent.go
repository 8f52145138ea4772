package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/consent"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ConsentHandler handles savings pot permissions and allocation suggestions.
type ConsentHandler struct {
	pots *consent.Config
	log  zerolog.Logger
}

// NewConsentHandler creates a new consent handler.
func NewConsentHandler(pots *consent.Config, log zerolog.Logger) *ConsentHandler {
	return &ConsentHandler{pots: pots, log: log}
}

type potRequest struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Allowed    *bool           `json:"allowed"`
	Priority   int             `json:"priority"`
	MaxPercent decimal.Decimal `json:"max_percent"`
}

type allocationRequest struct {
	Available decimal.Decimal `json:"available"`
}

// ListPots handles GET /api/consent/pots
func (h *ConsentHandler) ListPots(w http.ResponseWriter, r *http.Request) {
	pots := h.pots.Prioritized()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pots":  pots,
		"count": len(pots),
	})
}

// PutPot handles POST /api/consent/pots. Pots are allowed unless the request says otherwise.
func (h *ConsentHandler) PutPot(w http.ResponseWriter, r *http.Request) {
	var req potRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	allowed := true
	if req.Allowed != nil {
		allowed = *req.Allowed
	}

	pot, err := h.pots.Put(consent.Pot{
		ID:         req.ID,
		Name:       req.Name,
		Allowed:    allowed,
		Priority:   req.Priority,
		MaxPercent: req.MaxPercent,
	})
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, pot)
}

// RemovePot handles DELETE /api/consent/pots/{id}
func (h *ConsentHandler) RemovePot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid pot ID")
		return
	}
	if err := h.pots.Remove(id); errors.Is(err, consent.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Pot not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Allocate handles POST /api/consent/allocation
func (h *ConsentHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Available.IsNegative() {
		middleware.WriteError(w, http.StatusBadRequest, "available must not be negative")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"available":   req.Available,
		"allocations": h.pots.SuggestAllocation(req.Available),
	})
}
