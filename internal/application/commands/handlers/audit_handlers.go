package handlers

import (
	"context"

	"coverstack-backend/internal/application/commands"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/domain/quote"
	"coverstack-backend/internal/domain/shared"
)

// AttachFileToQuoteHandler records a file against the quote.
type AttachFileToQuoteHandler struct {
	*Deps
}

func NewAttachFileToQuoteHandler(deps *Deps) *AttachFileToQuoteHandler {
	return &AttachFileToQuoteHandler{Deps: deps}
}

func (h *AttachFileToQuoteHandler) Handle(ctx context.Context, cmd commands.AttachFileToQuoteCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.AttachFile(quoteID, quote.AttachedFile{
			FileID: cmd.FileID,
			Name:   cmd.Name,
			Kind:   cmd.Kind,
		}, performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}

// MakeQuoteEnquiryHandler records a customer enquiry against the quote.
type MakeQuoteEnquiryHandler struct {
	*Deps
}

func NewMakeQuoteEnquiryHandler(deps *Deps) *MakeQuoteEnquiryHandler {
	return &MakeQuoteEnquiryHandler{Deps: deps}
}

func (h *MakeQuoteEnquiryHandler) Handle(ctx context.Context, cmd commands.MakeQuoteEnquiryCommand) (*models.NewQuoteReadModel, error) {
	tenantID, err := shared.NewTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}
	quoteID, err := shared.ParseQuoteID(cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	a, err := h.mutateByQuoteID(ctx, tenantID, quoteID, func(ctx context.Context, a *quote.Aggregate, performedBy shared.UserID) error {
		return a.MakeEnquiry(quoteID, cmd.Message, performedBy, h.Clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectQuote(a, quoteID, h.Clock.Now())
}
