package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rate limited", &purchase.FailureError{Reason: purchase.ReasonRateLimited}, http.StatusTooManyRequests},
		{"unknown product", &purchase.FailureError{Reason: purchase.ReasonUnknownProduct}, http.StatusNotFound},
		{"provider error", &purchase.FailureError{Reason: purchase.ReasonProviderError}, http.StatusBadGateway},
		{"cancelled", &purchase.FailureError{Reason: purchase.ReasonCancelled}, http.StatusPaymentRequired},
		{"pending", &purchase.FailureError{Reason: purchase.ReasonPending}, http.StatusPaymentRequired},
		{"verification failed", &purchase.FailureError{Reason: purchase.ReasonVerificationFailed}, http.StatusPaymentRequired},
		{"unknown card", fmt.Errorf("%w: 7", economy.ErrUnknownCard), http.StatusNotFound},
		{"purchase not found", storage.ErrPurchaseNotFound, http.StatusNotFound},
		{"invalid amount", economy.ErrInvalidAmount, http.StatusBadRequest},
		{"insufficient", fmt.Errorf("skip: %w", economy.ErrInsufficientCurrency), http.StatusConflict},
		{"not owned", economy.ErrCardNotOwned, http.StatusConflict},
		{"no boosters", economy.ErrNoBoosters, http.StatusConflict},
		{"nothing to skip", economy.ErrNothingToSkip, http.StatusConflict},
		{"not loaded", economy.ErrNotLoaded, http.StatusServiceUnavailable},
		{"purchases disabled", economy.ErrPurchasesDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("writeError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
			}
		})
	}
}

func TestIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=x&neg=-3", nil)
	if got := intQuery(req, "limit", 10); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := intQuery(req, "bad", 10); got != 10 {
		t.Errorf("bad = %d, want default", got)
	}
	if got := intQuery(req, "neg", 10); got != 10 {
		t.Errorf("neg = %d, want default", got)
	}
	if got := intQuery(req, "missing", 10); got != 10 {
		t.Errorf("missing = %d, want default", got)
	}
}
