// Package response writes the JSON envelopes returned by the booster API.
//
// Every body is either {"data": ...} or an error envelope. Handlers pick a
// helper by the economy error they got back:
//
//	ErrInsufficientCurrency, ErrCardNotOwned,
//	ErrNoBoosters, ErrNothingToSkip       -> Conflict (409)
//	purchase cancelled/pending/unverified -> PaymentRequired (402)
//	purchase rate_limited                 -> TooManyRequests (429)
//	ErrNotLoaded, ErrPurchasesDisabled    -> ServiceUnavailable (503)
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply. Message carries the
// economy error text, so clients can show why a pull or purchase was refused.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SuccessResponse wraps ledger snapshots, pull results and settlements.
type SuccessResponse struct {
	Data any `json:"data"`
}

// PaginatedResponse is one page of collection entries.
type PaginatedResponse struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// JSON encodes body with the given status. A nil body writes only the header.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// Created answers a settled purchase.
func Created(w http.ResponseWriter, settlement any) {
	JSON(w, http.StatusCreated, SuccessResponse{Data: settlement})
}

// Error writes the error envelope. Prefer the named helpers below.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

// BadRequest is for malformed bodies and non-positive amounts.
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

// NotFound is for unknown catalog numbers, products and purchase tokens.
func NotFound(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}

// Conflict rejects a mutation the current ledger cannot satisfy: too little
// currency, a card not owned, or no boosters to open or skip.
func Conflict(w http.ResponseWriter, err error) {
	Error(w, http.StatusConflict, err)
}

// PaymentRequired reports a purchase the store did not complete. Nothing is
// credited.
func PaymentRequired(w http.ResponseWriter, err error) {
	Error(w, http.StatusPaymentRequired, err)
}

func TooManyRequests(w http.ResponseWriter, err error) {
	Error(w, http.StatusTooManyRequests, err)
}

// BadGateway reports a failure inside the purchase provider itself.
func BadGateway(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadGateway, err)
}

func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// ServiceUnavailable is returned before the ledger has loaded, and for
// purchases while the store is disabled.
func ServiceUnavailable(w http.ResponseWriter, err error) {
	Error(w, http.StatusServiceUnavailable, err)
}

// Paginated writes one page of a total-entry listing. An empty listing still
// reports one page.
func Paginated(w http.ResponseWriter, page any, number, size, total int) {
	pages := max((total+size-1)/size, 1)
	JSON(w, http.StatusOK, PaginatedResponse{
		Data:       page,
		Page:       number,
		PageSize:   size,
		TotalCount: total,
		TotalPages: pages,
	})
}
