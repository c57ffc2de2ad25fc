package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Outcome is the provider's verdict on a purchase attempt.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeCancelled
	OutcomePending
	OutcomeVerificationFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomePending:
		return "pending"
	case OutcomeVerificationFailed:
		return "verification_failed"
	default:
		return "unknown"
	}
}

// Result is what the provider reports for one attempt.
type Result struct {
	Outcome       Outcome `json:"outcome"`
	TransactionID string  `json:"transactionId,omitempty"`
	// GrantedSKU is the product the store says was paid for.
	GrantedSKU string `json:"grantedSku,omitempty"`
}

// Provider is the external store. Timeouts and cancellation of the remote
// verification are the provider's concern.
type Provider interface {
	Purchase(ctx context.Context, productID string) (Result, error)
}

// FailureReason classifies a purchase that did not settle.
type FailureReason string

const (
	ReasonCancelled          FailureReason = "cancelled"
	ReasonPending            FailureReason = "pending"
	ReasonVerificationFailed FailureReason = "verification_failed"
	ReasonUnknown            FailureReason = "unknown"
	ReasonUnknownProduct     FailureReason = "unknown_product"
	ReasonRateLimited        FailureReason = "rate_limited"
	ReasonProviderError      FailureReason = "provider_error"
)

// FailureError is returned for every purchase that must not change the economy.
type FailureError struct {
	ProductID string
	Reason    FailureReason
	Err       error
}

func (e *FailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("purchase of %s failed: %s: %v", e.ProductID, e.Reason, e.Err)
	}
	return fmt.Sprintf("purchase of %s failed: %s", e.ProductID, e.Reason)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from err, if it carries one.
func ReasonOf(err error) (FailureReason, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}

func reasonFor(o Outcome) FailureReason {
	switch o {
	case OutcomeCancelled:
		return ReasonCancelled
	case OutcomePending:
		return ReasonPending
	case OutcomeVerificationFailed:
		return ReasonVerificationFailed
	default:
		return ReasonUnknown
	}
}

// SandboxProvider approves purchases locally. Outcomes can be forced per product
// for development and tests.
type SandboxProvider struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	calls    int
}

// NewSandboxProvider creates a provider that succeeds by default.
func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{outcomes: make(map[string]Outcome)}
}

// SetOutcome forces the outcome reported for productID.
func (p *SandboxProvider) SetOutcome(productID string, o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes[productID] = o
}

// Calls returns how many purchases were attempted.
func (p *SandboxProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Purchase reports the configured outcome with a fresh transaction ID on success.
func (p *SandboxProvider) Purchase(ctx context.Context, productID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	p.mu.Lock()
	p.calls++
	outcome, ok := p.outcomes[productID]
	p.mu.Unlock()

	if !ok {
		outcome = OutcomeSuccess
	}
	if outcome != OutcomeSuccess {
		return Result{Outcome: outcome}, nil
	}
	return Result{
		Outcome:       OutcomeSuccess,
		TransactionID: "sandbox-" + uuid.NewString(),
		GrantedSKU:    productID,
	}, nil
}
