package memory

import (
	"context"
	"fmt"
	"sync"

	"coverstack-backend/internal/application/ports"
	"coverstack-backend/internal/domain/shared"
)

// NumberGenerator allocates quote and policy numbers from per-tenant
// in-process counters. Sequence gaps are acceptable; uniqueness is not
// negotiable.
type NumberGenerator struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{counters: make(map[string]int)}
}

var _ ports.ReferenceNumberGenerator = (*NumberGenerator)(nil)

func (g *NumberGenerator) NextQuoteNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error) {
	return g.next(ctx, fmt.Sprintf("quote#%s#%s", tenantID, productID), "Q")
}

func (g *NumberGenerator) NextPolicyNumber(ctx context.Context, tenantID shared.TenantID, productID shared.ProductID) (string, error) {
	return g.next(ctx, fmt.Sprintf("policy#%s#%s", tenantID, productID), "P")
}

func (g *NumberGenerator) next(ctx context.Context, key, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[key]++
	return fmt.Sprintf("%s%06d", prefix, g.counters[key]), nil
}
