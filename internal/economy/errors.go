package economy

import "errors"

// Validation errors. None of them change state.
var (
	ErrInsufficientCurrency = errors.New("insufficient currency")
	ErrCardNotOwned         = errors.New("card not owned")
	ErrUnknownCard          = errors.New("unknown catalog number")
	ErrNoBoosters           = errors.New("no free boosters available")
	ErrNothingToSkip        = errors.New("no cooldown to skip")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrNotLoaded            = errors.New("economy not loaded")
	ErrPurchasesDisabled    = errors.New("purchases are not configured")
)
