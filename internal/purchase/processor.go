package purchase

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Authorization is a purchase cleared for settlement.
type Authorization struct {
	Product       Product `json:"product"`
	TransactionID string  `json:"transactionId"`
}

// Processor clears purchase attempts: it resolves the product, applies the
// attempt limit and, for currency packs, asks the provider.
type Processor struct {
	provider Provider
	products *ProductSet
	limiter  *rate.Limiter
}

// NewProcessor creates a processor. A zero limit disables rate limiting.
func NewProcessor(provider Provider, products *ProductSet, limit rate.Limit, burst int) *Processor {
	if limit == 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Processor{
		provider: provider,
		products: products,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Products returns the live product set.
func (p *Processor) Products() *ProductSet {
	return p.products
}

// Authorize clears one purchase of productID. Booster bundles are paid in
// currency and get a local transaction ID; the currency check happens at
// settlement. Every non-success provider outcome becomes a *FailureError.
func (p *Processor) Authorize(ctx context.Context, productID string) (Authorization, error) {
	product, ok := p.products.Get(productID)
	if !ok {
		return Authorization{}, &FailureError{ProductID: productID, Reason: ReasonUnknownProduct}
	}

	if !p.limiter.Allow() {
		return Authorization{}, &FailureError{ProductID: productID, Reason: ReasonRateLimited}
	}

	if product.Kind == KindBoosterBundle {
		return Authorization{Product: product, TransactionID: "local-" + uuid.NewString()}, nil
	}

	if p.provider == nil {
		return Authorization{}, &FailureError{ProductID: productID, Reason: ReasonProviderError, Err: fmt.Errorf("no purchase provider configured")}
	}

	res, err := p.provider.Purchase(ctx, productID)
	if err != nil {
		log.Printf("[Purchase] Provider error for %s: %v", productID, err)
		return Authorization{}, &FailureError{ProductID: productID, Reason: ReasonProviderError, Err: err}
	}

	if res.Outcome != OutcomeSuccess {
		log.Printf("[Purchase] %s not settled: %s", productID, res.Outcome)
		return Authorization{}, &FailureError{ProductID: productID, Reason: reasonFor(res.Outcome)}
	}

	// A success without a transaction, or for another product, cannot be trusted.
	if res.TransactionID == "" {
		return Authorization{}, &FailureError{ProductID: productID, Reason: ReasonVerificationFailed, Err: fmt.Errorf("missing transaction id")}
	}
	if res.GrantedSKU != "" && res.GrantedSKU != productID {
		return Authorization{}, &FailureError{
			ProductID: productID,
			Reason:    ReasonVerificationFailed,
			Err:       fmt.Errorf("granted sku %q does not match", res.GrantedSKU),
		}
	}

	return Authorization{Product: product, TransactionID: res.TransactionID}, nil
}
