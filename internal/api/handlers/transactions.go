package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/advice"
	"github.com/dvloznov/finance-chat/internal/api/middleware"
	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/store"
)

// TipsProvider produces financial tips for a transaction history.
type TipsProvider interface {
	Tips(ctx context.Context, txs []domain.TransactionRecord) []string
}

// TransactionsHandler handles transaction CRUD, the summary and tips.
type TransactionsHandler struct {
	store store.TransactionStore
	tips  TipsProvider
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(s store.TransactionStore, tips TipsProvider, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: s, tips: tips, log: log}
}

type transactionRequest struct {
	Type        domain.TransactionType `json:"type"`
	Amount      float64                `json:"amount"`
	Category    domain.Category        `json:"category"`
	Description string                 `json:"description"`
}

func (req transactionRequest) record() domain.TransactionRecord {
	category, _ := domain.ParseCategory(string(req.Category))
	return domain.TransactionRecord{
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    category,
		Description: req.Description,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.list(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.store.Append(r.Context(), middleware.UserIDFromContext(r.Context()), req.record())
	if err != nil {
		h.writeStoreError(w, err, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rec)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec := req.record()
	rec.ID = id
	updated, err := h.store.Update(r.Context(), middleware.UserIDFromContext(r.Context()), rec)
	if err != nil {
		h.writeStoreError(w, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	if err := h.store.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /api/summary
func (h *TransactionsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.list(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, advice.Summarize(txs))
}

// GetTips handles GET /api/tips
func (h *TransactionsHandler) GetTips(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.list(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tips": h.tips.Tips(r.Context(), txs),
	})
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request) ([]domain.TransactionRecord, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	txs, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return nil, false
	}
	if txs == nil {
		txs = []domain.TransactionRecord{}
	}
	return txs, true
}

func (h *TransactionsHandler) writeStoreError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrMissingDescription):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}
