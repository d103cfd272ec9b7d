package order

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("sign in to place an order")
	ErrEmptyCart       = errors.New("your cart is empty")
	ErrTotalMismatch   = errors.New("totalAmount does not match order contents")

	// ErrSubmitFailed hides every persistence failure behind one error.
	ErrSubmitFailed = errors.New("order submission failed")
)

// MissingFieldsError lists the blank shipping fields in form order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing shipping details: " + strings.Join(e.Fields, ", ")
}
