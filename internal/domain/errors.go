package domain

import "errors"

// Errors shared by the packages that read and write stock.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
