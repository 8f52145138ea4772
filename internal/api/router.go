// Package api wires the HTTP handlers into a router.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-assistant/internal/agent"
	"github.com/dvloznov/finance-assistant/internal/alerts"
	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/consent"
	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/rag"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Deps is everything the router serves.
type Deps struct {
	Agent      *agent.Agent
	Service    *finance.Service
	Registry   *alerts.Registry
	Deliveries *alerts.DeliveryStore
	Transcript conversation.Transcript
	Docs       *rag.DocStore
	Consent    *consent.Config
	Now        func() time.Time

	// CORSOrigins is passed to middleware.CORS.
	CORSOrigins []string
}

// NewRouter builds the HTTP handler with middleware applied.
func NewRouter(d Deps, log zerolog.Logger) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Consent == nil {
		d.Consent = consent.NewConfig()
	}

	agentHandler := handlers.NewAgentHandler(d.Agent, log)
	ledgerHandler := handlers.NewLedgerHandler(d.Service, log)
	notificationsHandler := handlers.NewNotificationsHandler(d.Service, log)
	webhooksHandler := handlers.NewWebhooksHandler(d.Registry, d.Deliveries, log)
	contextHandler := handlers.NewContextHandler(d.Transcript, d.Docs, log)
	consentHandler := handlers.NewConsentHandler(d.Consent, log)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Agent endpoints
	r.HandleFunc("/api/agent", agentHandler.Chat).Methods(http.MethodPost)
	r.HandleFunc("/api/chat/intent", agentHandler.ClassifyIntent).Methods(http.MethodPost)

	// Ledger endpoints
	r.HandleFunc("/api/transactions", ledgerHandler.ListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions", ledgerHandler.CreateTransaction).Methods(http.MethodPost)
	r.HandleFunc("/api/budgets", ledgerHandler.ListBudgets).Methods(http.MethodGet)
	r.HandleFunc("/api/budgets", ledgerHandler.CreateBudget).Methods(http.MethodPost)
	r.HandleFunc("/api/goals", ledgerHandler.ListGoals).Methods(http.MethodGet)
	r.HandleFunc("/api/goals", ledgerHandler.CreateGoal).Methods(http.MethodPost)
	r.HandleFunc("/api/summary", ledgerHandler.Summary).Methods(http.MethodGet)

	// Notification endpoints
	r.HandleFunc("/api/notifications", notificationsHandler.ListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/check-goals", notificationsHandler.CheckGoals).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications/{id:[0-9]+}/read", notificationsHandler.MarkRead).Methods(http.MethodPost)

	// Alert endpoint management
	r.HandleFunc("/api/webhooks", webhooksHandler.ListEndpoints).Methods(http.MethodGet)
	r.HandleFunc("/api/webhooks", webhooksHandler.AddEndpoint).Methods(http.MethodPost)
	r.HandleFunc("/api/webhooks/deliveries", webhooksHandler.ListDeliveries).Methods(http.MethodGet)
	r.HandleFunc("/api/webhooks/{id}", webhooksHandler.RemoveEndpoint).Methods(http.MethodDelete)

	// Context endpoints
	r.HandleFunc("/api/conversation", contextHandler.Conversation).Methods(http.MethodGet)
	r.HandleFunc("/api/rag/query", contextHandler.Query).Methods(http.MethodPost)
	r.HandleFunc("/api/rag/docs", contextHandler.AddDocuments).Methods(http.MethodPost)

	// Consent endpoints
	r.HandleFunc("/api/consent/pots", consentHandler.ListPots).Methods(http.MethodGet)
	r.HandleFunc("/api/consent/pots", consentHandler.PutPot).Methods(http.MethodPost)
	r.HandleFunc("/api/consent/pots/{id:[0-9]+}", consentHandler.RemovePot).Methods(http.MethodDelete)
	r.HandleFunc("/api/consent/allocation", consentHandler.Allocate).Methods(http.MethodPost)

	r.HandleFunc("/health", handlers.Health(d.Now)).Methods(http.MethodGet)

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(d.CORSOrigins...),
	)
}
