package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// writeError maps economy and purchase errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var failure *purchase.FailureError
	switch {
	case errors.As(err, &failure):
		switch failure.Reason {
		case purchase.ReasonRateLimited:
			response.TooManyRequests(w, err)
		case purchase.ReasonUnknownProduct:
			response.NotFound(w, err)
		case purchase.ReasonProviderError:
			response.BadGateway(w, err)
		default:
			response.PaymentRequired(w, err)
		}
	case errors.Is(err, economy.ErrUnknownCard), errors.Is(err, storage.ErrPurchaseNotFound):
		response.NotFound(w, err)
	case errors.Is(err, economy.ErrInvalidAmount):
		response.BadRequest(w, err)
	case errors.Is(err, economy.ErrInsufficientCurrency),
		errors.Is(err, economy.ErrCardNotOwned),
		errors.Is(err, economy.ErrNoBoosters),
		errors.Is(err, economy.ErrNothingToSkip):
		response.Conflict(w, err)
	case errors.Is(err, economy.ErrNotLoaded), errors.Is(err, economy.ErrPurchasesDisabled):
		response.ServiceUnavailable(w, err)
	default:
		response.InternalError(w, err)
	}
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// intQuery reads a positive integer query parameter, falling back to def.
func intQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
