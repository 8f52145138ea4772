package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles transactions, budgets, goals and the summary.
type LedgerHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(svc *finance.Service, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var startDate, endDate time.Time
	var err error
	if s := query.Get("start_date"); s != "" {
		if startDate, err = domain.ParseDay(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		if endDate, err = domain.ParseDay(s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}
	kind := domain.Kind(strings.ToUpper(query.Get("kind")))

	transactions, err := h.svc.Ledger().ListTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	// Return array directly for frontend compatibility
	out := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if !startDate.IsZero() && t.Date.Before(startDate) {
			continue
		}
		if !endDate.IsZero() && t.Date.After(endDate) {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t)
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
}

// CreateTransaction handles POST /api/transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount.IsZero() {
		middleware.WriteError(w, http.StatusBadRequest, "amount is required")
		return
	}

	draft := domain.TransactionDraft{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Kind:        domain.KindExpense,
	}
	if req.Kind != "" {
		draft.Kind = domain.Kind(strings.ToUpper(req.Kind))
	}
	if req.Date != "" {
		d, err := domain.ParseDay(req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		draft.Date = d
	}

	tx, err := h.svc.RecordTransaction(r.Context(), draft)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to record transaction")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// ListBudgets handles GET /api/budgets
func (h *LedgerHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.Ledger().ListBudgets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	middleware.WriteJSON(w, http.StatusOK, budgets)
}

// CreateBudget handles POST /api/budgets
func (h *LedgerHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var b domain.Budget
	if err := middleware.DecodeJSON(r, &b); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.ID = 0
	b.SpentThisMonth = decimal.Zero
	if strings.TrimSpace(b.Category) == "" {
		b.Category = strings.ToLower(strings.TrimSpace(b.Name))
	}

	created, err := h.svc.AddBudget(r.Context(), b)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// ListGoals handles GET /api/goals
func (h *LedgerHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.Ledger().ListGoals(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	middleware.WriteJSON(w, http.StatusOK, goals)
}

type goalRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	TargetDate   string          `json:"target_date"`
	Description  string          `json:"description"`
}

// CreateGoal handles POST /api/goals
func (h *LedgerHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	g := domain.Goal{
		Name:         strings.TrimSpace(req.Name),
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Description:  req.Description,
	}
	if req.TargetDate != "" {
		d, err := domain.ParseDay(req.TargetDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid target_date format")
			return
		}
		g.TargetDate = &d
	}

	created, err := h.svc.AddGoal(r.Context(), g)
	if errors.Is(err, ledger.ErrDuplicate) {
		middleware.WriteError(w, http.StatusConflict, "A goal with this name already exists")
		return
	}
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Summary handles GET /api/summary
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sum)
}
