package memory

import (
	"context"
	"sort"
	"sync"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/application/queries/models"
	"coverstack-backend/internal/errors"
)

// ReadModelRepository keeps quote views in process memory.
type ReadModelRepository struct {
	mu     sync.RWMutex
	quotes map[string]*models.NewQuoteReadModel
}

func NewReadModelRepository() *ReadModelRepository {
	return &ReadModelRepository{quotes: make(map[string]*models.NewQuoteReadModel)}
}

var _ ports.QuoteReadModelRepository = (*ReadModelRepository)(nil)

func (r *ReadModelRepository) UpsertQuote(ctx context.Context, rm *models.NewQuoteReadModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[rm.TenantID+"#"+rm.QuoteID] = copyReadModel(rm)
	return nil
}

func (r *ReadModelRepository) GetQuote(ctx context.Context, tenantID, quoteID string) (*models.NewQuoteReadModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.quotes[tenantID+"#"+quoteID]
	if !ok {
		return nil, errors.NotFound(errors.CodeQuoteNotFound.String(), "quote view not found").
			WithData("quoteId", quoteID).
			Build()
	}
	return copyReadModel(rm), nil
}

func (r *ReadModelRepository) ListQuotesByAggregate(ctx context.Context, tenantID, aggregateID string) ([]*models.NewQuoteReadModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.NewQuoteReadModel
	for _, rm := range r.quotes {
		if rm.TenantID == tenantID && rm.AggregateID == aggregateID {
			out = append(out, copyReadModel(rm))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// copyReadModel copies the view so the store and callers never share the
// form-data map.
func copyReadModel(rm *models.NewQuoteReadModel) *models.NewQuoteReadModel {
	cp := *rm
	cp.LatestFormData = rm.LatestFormData.Clone()
	return &cp
}
