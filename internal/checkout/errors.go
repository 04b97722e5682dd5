package checkout

import "errors"

var (
	ErrCheckoutInProgress  = errors.New("a checkout is already being submitted")
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrInsufficientBalance = errors.New("cart total exceeds available balance")
	ErrLoginRequired       = errors.New("login required to checkout")
	ErrInvalidItem         = errors.New("cart contains an item the checkout service cannot identify")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)
