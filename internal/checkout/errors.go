package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrNotInCart          = errors.New("product is not in the cart")
)
