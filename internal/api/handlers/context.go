package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/rag"
	"github.com/rs/zerolog"
)

// ContextHandler exposes the transcript and the document store.
type ContextHandler struct {
	transcript conversation.Transcript
	docs       *rag.DocStore
	log        zerolog.Logger
}

// NewContextHandler creates a new context handler.
func NewContextHandler(transcript conversation.Transcript, docs *rag.DocStore, log zerolog.Logger) *ContextHandler {
	return &ContextHandler{transcript: transcript, docs: docs, log: log}
}

// Conversation handles GET /api/conversation
func (h *ContextHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	turns, err := h.transcript.Turns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read transcript")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read transcript")
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"turns":   turns,
		"context": conversation.Format(turns),
	})
}

// Query handles POST /api/rag/query
func (h *ContextHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	hits := h.docs.Retrieve(req.Query, req.K)
	if hits == nil {
		hits = []rag.Hit{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"context": hits})
}

// AddDocuments handles POST /api/rag/docs
func (h *ContextHandler) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var docs []rag.Document
	if err := middleware.DecodeJSON(r, &docs); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Text) == "" {
			middleware.WriteError(w, http.StatusBadRequest, "every document needs an id and text")
			return
		}
	}
	h.docs.Add(docs...)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "added": len(docs)})
}
