// Package handlers maps REST requests onto application commands and queries.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/mediator"
	"coverstack-backend/internal/application/queries"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuoteHandler serves the quote lifecycle endpoints. Request validation
// happens in the mediator pipeline; handlers only decode and dispatch.
type QuoteHandler struct {
	mediator *mediator.Mediator
	logger   *zap.Logger
}

func NewQuoteHandler(med *mediator.Mediator, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{mediator: med, logger: logger}
}

// CreateQuoteRequest is the body for opening a new business quote.
type CreateQuoteRequest struct {
	OrganisationID   string         `json:"organisationId"`
	ProductID        string         `json:"productId"`
	Environment      string         `json:"environment"`
	IsTestData       bool           `json:"isTestData"`
	ProductReleaseID string         `json:"productReleaseId"`
	CustomerID       string         `json:"customerId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
}

// CreateQuote handles POST /tenants/{tenantID}/quotes.
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CreateNewBusinessQuoteCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		OrganisationID:   req.OrganisationID,
		ProductID:        req.ProductID,
		Environment:      req.Environment,
		IsTestData:       req.IsTestData,
		ProductReleaseID: req.ProductReleaseID,
		CustomerID:       req.CustomerID,
		InitialFormData:  req.InitialFormData,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// GetQuote handles GET /tenants/{tenantID}/quotes/{quoteID}.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Query(r.Context(), queries.GetQuoteQuery{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// UpdateFormDataRequest is the body for replacing a quote's form payload.
type UpdateFormDataRequest struct {
	FormData        quote.FormData         `json:"formData"`
	CustomerDetails *quote.CustomerDetails `json:"customerDetails"`
}

// UpdateFormData handles PUT /tenants/{tenantID}/quotes/{quoteID}/form-data.
func (h *QuoteHandler) UpdateFormData(w http.ResponseWriter, r *http.Request) {
	var req UpdateFormDataRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.UpdateFormDataCommand{
		TenantID:        chi.URLParam(r, "tenantID"),
		QuoteID:         chi.URLParam(r, "quoteID"),
		FormData:        req.FormData,
		CustomerDetails: req.CustomerDetails,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// SubmitQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/submit.
func (h *QuoteHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Send(r.Context(), commands.SubmitQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// CalculateQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/calculate.
func (h *QuoteHandler) CalculateQuote(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Send(r.Context(), commands.CalculateQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// ReasonRequest carries an optional operator-entered reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// DeclineQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/decline.
func (h *QuoteHandler) DeclineQuote(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.DeclineQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
		Reason:   req.Reason,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// ReferQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/refer.
func (h *QuoteHandler) ReferQuote(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Send(r.Context(), commands.ReferQuoteForEndorsementCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// ApproveEndorsement handles POST /tenants/{tenantID}/quotes/{quoteID}/approve.
func (h *QuoteHandler) ApproveEndorsement(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Send(r.Context(), commands.ApproveEndorsementCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// DiscardQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/discard.
func (h *QuoteHandler) DiscardQuote(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.DiscardQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
		Reason:   req.Reason,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// PaymentRequest carries one payment instrument: a gateway token, a saved
// method id, or raw card details.
type PaymentRequest struct {
	TokenID       string             `json:"tokenId"`
	SavedMethodID string             `json:"savedMethodId"`
	Card          *quote.CardDetails `json:"card"`
}

// CardPayment handles POST /tenants/{tenantID}/quotes/{quoteID}/payments/card.
func (h *QuoteHandler) CardPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CardPaymentCommand{
		TenantID:      chi.URLParam(r, "tenantID"),
		QuoteID:       chi.URLParam(r, "quoteID"),
		TokenID:       req.TokenID,
		SavedMethodID: req.SavedMethodID,
		Card:          req.Card,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// BindPolicy handles POST /tenants/{tenantID}/quotes/{quoteID}/bind.
// The payment instrument is optional when the quote is already funded or
// nothing is payable.
func (h *QuoteHandler) BindPolicy(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.BindPolicyCommand{
		TenantID:      chi.URLParam(r, "tenantID"),
		QuoteID:       chi.URLParam(r, "quoteID"),
		TokenID:       req.TokenID,
		SavedMethodID: req.SavedMethodID,
		Card:          req.Card,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// CloneQuoteRequest is the body for cloning an expired quote.
type CloneQuoteRequest struct {
	ProductReleaseID string `json:"productReleaseId"`
}

// CloneQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/clone.
func (h *QuoteHandler) CloneQuote(w http.ResponseWriter, r *http.Request) {
	var req CloneQuoteRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CloneQuoteFromExpiredQuoteCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		QuoteID:          chi.URLParam(r, "quoteID"),
		ProductReleaseID: req.ProductReleaseID,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// AssociateCustomerRequest links a quote to a customer record.
type AssociateCustomerRequest struct {
	CustomerID string `json:"customerId"`
}

// AssociateCustomer handles PUT /tenants/{tenantID}/quotes/{quoteID}/customer.
func (h *QuoteHandler) AssociateCustomer(w http.ResponseWriter, r *http.Request) {
	var req AssociateCustomerRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.AssociateQuoteWithCustomerCommand{
		TenantID:   chi.URLParam(r, "tenantID"),
		QuoteID:    chi.URLParam(r, "quoteID"),
		CustomerID: req.CustomerID,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// AssignOwnerRequest assigns the owning user of a quote's aggregate.
type AssignOwnerRequest struct {
	OwnerUserID string `json:"ownerUserId"`
}

// AssignOwner handles PUT /tenants/{tenantID}/quotes/{quoteID}/owner.
func (h *QuoteHandler) AssignOwner(w http.ResponseWriter, r *http.Request) {
	var req AssignOwnerRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.AssignQuoteOwnerCommand{
		TenantID:    chi.URLParam(r, "tenantID"),
		QuoteID:     chi.URLParam(r, "quoteID"),
		OwnerUserID: req.OwnerUserID,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// ExpireQuote handles POST /tenants/{tenantID}/quotes/{quoteID}/expire.
func (h *QuoteHandler) ExpireQuote(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Send(r.Context(), commands.ExpireQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// AttachFileRequest records an already-uploaded file against a quote.
type AttachFileRequest struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

// AttachFile handles POST /tenants/{tenantID}/quotes/{quoteID}/files.
func (h *QuoteHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	var req AttachFileRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.AttachFileToQuoteCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
		FileID:   req.FileID,
		Name:     req.Name,
		Kind:     req.Kind,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// EnquiryRequest carries a customer enquiry message.
type EnquiryRequest struct {
	Message string `json:"message"`
}

// MakeEnquiry handles POST /tenants/{tenantID}/quotes/{quoteID}/enquiries.
func (h *QuoteHandler) MakeEnquiry(w http.ResponseWriter, r *http.Request) {
	var req EnquiryRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.MakeQuoteEnquiryCommand{
		TenantID: chi.URLParam(r, "tenantID"),
		QuoteID:  chi.URLParam(r, "quoteID"),
		Message:  req.Message,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// MigrateOrganisationRequest moves a quote's aggregate to another
// organisation.
type MigrateOrganisationRequest struct {
	OrganisationID string `json:"organisationId"`
}

// MigrateOrganisation handles PUT /tenants/{tenantID}/quotes/{quoteID}/organisation.
func (h *QuoteHandler) MigrateOrganisation(w http.ResponseWriter, r *http.Request) {
	var req MigrateOrganisationRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.MigrateQuoteOrganisationCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		QuoteID:          chi.URLParam(r, "quoteID"),
		ToOrganisationID: req.OrganisationID,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// TransactionQuoteRequest is the body for opening an adjustment, renewal, or
// cancellation quote against a bound aggregate.
type TransactionQuoteRequest struct {
	ProductReleaseID string         `json:"productReleaseId"`
	InitialFormData  quote.FormData `json:"initialFormData"`
	DiscardExisting  bool           `json:"discardExisting"`
}

// CreateAdjustmentQuote handles POST /tenants/{tenantID}/aggregates/{aggregateID}/adjustments.
func (h *QuoteHandler) CreateAdjustmentQuote(w http.ResponseWriter, r *http.Request) {
	var req TransactionQuoteRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CreateAdjustmentQuoteCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		AggregateID:      chi.URLParam(r, "aggregateID"),
		ProductReleaseID: req.ProductReleaseID,
		InitialFormData:  req.InitialFormData,
		DiscardExisting:  req.DiscardExisting,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// CreateRenewalQuote handles POST /tenants/{tenantID}/aggregates/{aggregateID}/renewals.
func (h *QuoteHandler) CreateRenewalQuote(w http.ResponseWriter, r *http.Request) {
	var req TransactionQuoteRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CreateRenewalQuoteCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		AggregateID:      chi.URLParam(r, "aggregateID"),
		ProductReleaseID: req.ProductReleaseID,
		InitialFormData:  req.InitialFormData,
		DiscardExisting:  req.DiscardExisting,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// CreateCancellationQuote handles POST /tenants/{tenantID}/aggregates/{aggregateID}/cancellations.
func (h *QuoteHandler) CreateCancellationQuote(w http.ResponseWriter, r *http.Request) {
	var req TransactionQuoteRequest
	if err := decodeOptional(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.mediator.Send(r.Context(), commands.CreateCancellationQuoteCommand{
		TenantID:         chi.URLParam(r, "tenantID"),
		AggregateID:      chi.URLParam(r, "aggregateID"),
		ProductReleaseID: req.ProductReleaseID,
		InitialFormData:  req.InitialFormData,
		DiscardExisting:  req.DiscardExisting,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// ListAggregateQuotes handles GET /tenants/{tenantID}/aggregates/{aggregateID}/quotes.
func (h *QuoteHandler) ListAggregateQuotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.mediator.Query(r.Context(), queries.ListAggregateQuotesQuery{
		TenantID:    chi.URLParam(r, "tenantID"),
		AggregateID: chi.URLParam(r, "aggregateID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *QuoteHandler) respond(w http.ResponseWriter, r *http.Request, status int, result interface{}, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(result); encErr != nil {
		h.logger.Error("failed to encode response", zap.Error(encErr))
	}
}

func (h *QuoteHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": errors.Public(err)})
}

func decode(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Validation(errors.CodeInvalidInput.String(), "invalid request body: "+err.Error()).Build()
	}
	return nil
}

// decodeOptional tolerates an empty body for endpoints whose payload is
// entirely optional.
func decodeOptional(r *http.Request, target interface{}) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err == nil || stderrors.Is(err, io.EOF) {
		return nil
	}
	return errors.Validation(errors.CodeInvalidInput.String(), "invalid request body: "+err.Error()).Build()
}
