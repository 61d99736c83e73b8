package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/api/middleware"
	"github.com/dvloznov/finance-chat/internal/domain"
	"github.com/dvloznov/finance-chat/internal/router"
	"github.com/dvloznov/finance-chat/internal/store"
)

// maxHistoryTurns bounds the transcript accepted from clients.
const maxHistoryTurns = 50

// MessageRouter classifies one chat message.
type MessageRouter interface {
	Route(ctx context.Context, message string, history []domain.ConversationTurn, txs []domain.TransactionRecord) router.Action
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	router MessageRouter
	store  store.TransactionStore
	log    zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(r MessageRouter, s store.TransactionStore, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{router: r, store: s, log: log}
}

type chatRequest struct {
	Message string                    `json:"message"`
	History []domain.ConversationTurn `json:"history"`
}

// Chat handles POST /api/chat. A recognised transaction is stored before
// the reply is sent, so the returned record carries its persistent ID.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if len(req.History) > maxHistoryTurns {
		req.History = req.History[len(req.History)-maxHistoryTurns:]
	}

	txs, err := h.store.List(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load transactions")
		return
	}

	action := h.router.Route(ctx, req.Message, req.History, txs)

	if action.Kind == router.ActionRecordTransaction && action.Transaction != nil {
		saved, err := h.store.Append(ctx, userID, *action.Transaction)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to save transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
			return
		}
		action.Transaction = &saved
	}

	middleware.WriteJSON(w, http.StatusOK, action)
}
