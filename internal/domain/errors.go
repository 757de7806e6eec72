package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced store, product, inventory row or
	// recommendation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a decrement exceeds the on-hand quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned for non-positive transfer or order quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrOutOfStock is returned by order routing when no store can serve the order.
	ErrOutOfStock = errors.New("Out of Stock")
	// ErrInvalidRequest is returned when a request does not identify what it acts on.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTrainingFailed marks a training attempt that cannot succeed.
	ErrTrainingFailed = errors.New("forecast training failed")
)
