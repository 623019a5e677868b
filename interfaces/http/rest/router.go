// Package rest wires the HTTP surface: routing, middleware, and the
// operational endpoints.
package rest

import (
	"net/http"

	"coverstack-backend/interfaces/http/rest/handlers"
	"coverstack-backend/interfaces/http/rest/middleware"
	"coverstack-backend/internal/application/mediator"
	"coverstack-backend/internal/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Router builds the HTTP handler for the service.
type Router struct {
	mediator *mediator.Mediator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewRouter(med *mediator.Mediator, metrics *observability.Metrics, logger *zap.Logger) *Router {
	return &Router{mediator: med, metrics: metrics, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	router.Get("/health", rt.healthCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	router.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Use(middleware.Identity())

		quoteHandler := handlers.NewQuoteHandler(rt.mediator, rt.logger)

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", quoteHandler.CreateQuote)
			r.Get("/{quoteID}", quoteHandler.GetQuote)
			r.Put("/{quoteID}/form-data", quoteHandler.UpdateFormData)
			r.Post("/{quoteID}/submit", quoteHandler.SubmitQuote)
			r.Post("/{quoteID}/calculate", quoteHandler.CalculateQuote)
			r.Post("/{quoteID}/decline", quoteHandler.DeclineQuote)
			r.Post("/{quoteID}/refer", quoteHandler.ReferQuote)
			r.Post("/{quoteID}/approve", quoteHandler.ApproveEndorsement)
			r.Post("/{quoteID}/discard", quoteHandler.DiscardQuote)
			r.Post("/{quoteID}/payments/card", quoteHandler.CardPayment)
			r.Post("/{quoteID}/bind", quoteHandler.BindPolicy)
			r.Post("/{quoteID}/expire", quoteHandler.ExpireQuote)
			r.Post("/{quoteID}/clone", quoteHandler.CloneQuote)
			r.Post("/{quoteID}/files", quoteHandler.AttachFile)
			r.Post("/{quoteID}/enquiries", quoteHandler.MakeEnquiry)
			r.Put("/{quoteID}/customer", quoteHandler.AssociateCustomer)
			r.Put("/{quoteID}/owner", quoteHandler.AssignOwner)
			r.Put("/{quoteID}/organisation", quoteHandler.MigrateOrganisation)
		})

		r.Route("/aggregates/{aggregateID}", func(r chi.Router) {
			r.Get("/quotes", quoteHandler.ListAggregateQuotes)
			r.Post("/adjustments", quoteHandler.CreateAdjustmentQuote)
			r.Post("/renewals", quoteHandler.CreateRenewalQuote)
			r.Post("/cancellations", quoteHandler.CreateCancellationQuote)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
