package purchase

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"
)

type stubProvider struct {
	result Result
	err    error
}

func (s stubProvider) Purchase(context.Context, string) (Result, error) {
	return s.result, s.err
}

func newTestProcessor(t *testing.T, provider Provider) *Processor {
	t.Helper()
	products, err := NewProductSet(DefaultProducts())
	if err != nil {
		t.Fatalf("NewProductSet failed: %v", err)
	}
	return NewProcessor(provider, products, 0, 0)
}

func TestAuthorize_CurrencyPackSuccess(t *testing.T) {
	sandbox := NewSandboxProvider()
	p := newTestProcessor(t, sandbox)

	auth, err := p.Authorize(context.Background(), "coins_500")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if auth.Product.Quantity != 500 || auth.TransactionID == "" {
		t.Errorf("Unexpected authorization: %+v", auth)
	}
	if sandbox.Calls() != 1 {
		t.Errorf("Expected one provider call, got %d", sandbox.Calls())
	}
}

func TestAuthorize_BoosterBundleSkipsProvider(t *testing.T) {
	sandbox := NewSandboxProvider()
	p := newTestProcessor(t, sandbox)

	auth, err := p.Authorize(context.Background(), "boosters_3")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if auth.Product.Kind != KindBoosterBundle || auth.TransactionID == "" {
		t.Errorf("Unexpected authorization: %+v", auth)
	}
	if sandbox.Calls() != 0 {
		t.Errorf("Expected no provider call, got %d", sandbox.Calls())
	}
}

func TestAuthorize_FailureOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		product  string
		want     FailureReason
	}{
		{"unknown product", NewSandboxProvider(), "nope", ReasonUnknownProduct},
		{"cancelled", stubProvider{result: Result{Outcome: OutcomeCancelled}}, "coins_500", ReasonCancelled},
		{"pending", stubProvider{result: Result{Outcome: OutcomePending}}, "coins_500", ReasonPending},
		{"verification failed", stubProvider{result: Result{Outcome: OutcomeVerificationFailed}}, "coins_500", ReasonVerificationFailed},
		{"unknown outcome", stubProvider{result: Result{Outcome: OutcomeUnknown}}, "coins_500", ReasonUnknown},
		{"provider error", stubProvider{err: errors.New("network down")}, "coins_500", ReasonProviderError},
		{"missing transaction", stubProvider{result: Result{Outcome: OutcomeSuccess}}, "coins_500", ReasonVerificationFailed},
		{"sku mismatch", stubProvider{result: Result{Outcome: OutcomeSuccess, TransactionID: "t", GrantedSKU: "coins_3000"}}, "coins_500", ReasonVerificationFailed},
		{"no provider", nil, "coins_500", ReasonProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, tt.provider)
			_, err := p.Authorize(context.Background(), tt.product)

			var fe *FailureError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *FailureError, got %v", err)
			}
			if fe.Reason != tt.want {
				t.Errorf("Expected reason %s, got %s", tt.want, fe.Reason)
			}
			if reason, ok := ReasonOf(err); !ok || reason != tt.want {
				t.Errorf("ReasonOf = %s, %v", reason, ok)
			}
		})
	}
}

func TestAuthorize_RateLimited(t *testing.T) {
	products, _ := NewProductSet(DefaultProducts())
	p := NewProcessor(NewSandboxProvider(), products, rate.Limit(0.001), 2)

	for i := 0; i < 2; i++ {
		if _, err := p.Authorize(context.Background(), "coins_500"); err != nil {
			t.Fatalf("Attempt %d should pass: %v", i, err)
		}
	}
	_, err := p.Authorize(context.Background(), "coins_500")
	if reason, _ := ReasonOf(err); reason != ReasonRateLimited {
		t.Errorf("Expected rate limited, got %v", err)
	}
}

func TestSandboxProvider_ForcedOutcome(t *testing.T) {
	s := NewSandboxProvider()
	s.SetOutcome("coins_500", OutcomePending)

	res, err := s.Purchase(context.Background(), "coins_500")
	if err != nil || res.Outcome != OutcomePending || res.TransactionID != "" {
		t.Errorf("Unexpected result: %+v (err=%v)", res, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Purchase(ctx, "coins_500"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context error, got %v", err)
	}
}

func TestProductSet(t *testing.T) {
	set, err := NewProductSet(DefaultProducts())
	if err != nil {
		t.Fatalf("NewProductSet failed: %v", err)
	}
	if set.Len() != 4 {
		t.Errorf("Expected 4 products, got %d", set.Len())
	}
	list := set.List()
	if list[0].Kind != KindBoosterBundle || list[0].Quantity != 3 {
		t.Errorf("Unexpected ordering: %+v", list[0])
	}

	bad := []Product{{ID: "x", Kind: "mystery", Quantity: 1}}
	if err := set.Replace(bad); err == nil {
		t.Error("Expected invalid kind to be rejected")
	}
	if set.Len() != 4 {
		t.Error("Expected failed replace to keep the current set")
	}

	dup := []Product{
		{ID: "a", Kind: KindCurrencyPack, Quantity: 1},
		{ID: "a", Kind: KindCurrencyPack, Quantity: 2},
	}
	if err := set.Replace(dup); err == nil {
		t.Error("Expected duplicate ids to be rejected")
	}

	if err := set.Replace([]Product{{ID: "only", Kind: KindCurrencyPack, Quantity: 10}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, ok := set.Get("coins_500"); ok {
		t.Error("Expected old products to be gone")
	}
}
