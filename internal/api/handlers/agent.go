package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/agent"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/rs/zerolog"
)

// AgentHandler handles the conversational endpoints.
type AgentHandler struct {
	agent *agent.Agent
	log   zerolog.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(a *agent.Agent, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{agent: a, log: log}
}

type messageRequest struct {
	Message string `json:"message"`
}

func decodeMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req messageRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return "", false
	}
	return msg, true
}

// Chat handles POST /api/agent
func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	reply := h.agent.Handle(r.Context(), msg)

	h.log.Debug().
		Str("intent", string(reply.Intent.Intent)).
		Str("tool", reply.Tool).
		Msg("agent replied")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"response": reply.Response,
		"metadata": map[string]interface{}{
			"intent":       reply.Intent,
			"tool":         reply.Tool,
			"tool_result":  reply.ToolResult,
			"context_used": reply.ContextUsed,
			"timestamp":    reply.Timestamp,
		},
	})
}

// ClassifyIntent handles POST /api/chat/intent. It never modifies data.
func (h *AgentHandler) ClassifyIntent(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.agent.ClassifyOnly(r.Context(), msg))
}
