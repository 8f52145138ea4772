package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-assistant/internal/alerts"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// WebhooksHandler manages alert endpoints and exposes delivery history.
type WebhooksHandler struct {
	registry   *alerts.Registry
	deliveries *alerts.DeliveryStore
	log        zerolog.Logger
}

// NewWebhooksHandler creates a new webhooks handler.
func NewWebhooksHandler(registry *alerts.Registry, deliveries *alerts.DeliveryStore, log zerolog.Logger) *WebhooksHandler {
	return &WebhooksHandler{registry: registry, deliveries: deliveries, log: log}
}

// ListEndpoints handles GET /api/webhooks
func (h *WebhooksHandler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints := h.registry.List()
	if endpoints == nil {
		endpoints = []alerts.Endpoint{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"endpoints": endpoints,
		"count":     len(endpoints),
	})
}

// AddEndpoint handles POST /api/webhooks
func (h *WebhooksHandler) AddEndpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ep, err := h.registry.Add(req.URL)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, alerts.ErrUnsupportedScheme) {
			h.log.Warn().Err(err).Str("url", req.URL).Msg("Rejected alert endpoint")
		}
		middleware.WriteError(w, status, err.Error())
		return
	}

	h.log.Info().Str("endpoint_id", ep.ID).Str("scheme", ep.Scheme()).Msg("Alert endpoint registered")
	middleware.WriteJSON(w, http.StatusCreated, ep)
}

// RemoveEndpoint handles DELETE /api/webhooks/{id}
func (h *WebhooksHandler) RemoveEndpoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.registry.Remove(id) {
		middleware.WriteError(w, http.StatusNotFound, alerts.ErrEndpointNotFound.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListDeliveries handles GET /api/webhooks/deliveries
func (h *WebhooksHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := alerts.DeliveryFilter{
		EndpointID: query.Get("endpoint_id"),
		Status:     alerts.DeliveryStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	deliveries := h.deliveries.ListDeliveries(filter)
	if deliveries == nil {
		deliveries = []alerts.Delivery{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deliveries": deliveries,
		"count":      len(deliveries),
	})
}
