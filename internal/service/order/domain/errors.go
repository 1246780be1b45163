// internal/service/order/domain/errors.go
package domain

import "github.com/pkg/errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptySelection    = errors.New("no items selected for checkout")
	ErrMissingAddress    = errors.New("shipping address is required")
	ErrMissingRecipient  = errors.New("recipient name and phone are required")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
