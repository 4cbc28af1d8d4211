package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrRefundWindowExpired    = errors.New("refund window expired")
	ErrEmployeeCustomerRefund = errors.New("refunds are not available for employee customers")
	ErrSelfRefund             = errors.New("employees cannot refund their own purchases")
	ErrNoRefundableItems      = errors.New("no valid items to refund")
	ErrRefundRequiresManager  = errors.New("refund amount requires manager authorization")
	ErrManagerRequired        = errors.New("manager role required")
)

// ItemNotFoundError aborts pricing when a cart line names a product the
// catalog does not carry.
type ItemNotFoundError struct {
	Name string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.Name)
}

// OutOfStockError aborts pricing when a line asks for more units than
// the shelf holds. Available reports what was on hand at pricing time.
type OutOfStockError struct {
	Name      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %s (requested %d, available %d)", e.Name, e.Requested, e.Available)
}

// ValidationError covers malformed input caught before any business
// rule runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
