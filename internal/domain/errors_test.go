package domain

import (
	"errors"
	"testing"
)

func TestFieldErrorsWrapValidation(t *testing.T) {
	fieldErrs := []error{
		ErrOwnerRequired,
		ErrLinesRequired,
		ErrLineProductRequired,
		ErrLineQuantityInvalid,
		ErrTotalAmountInvalid,
		ErrPaymentMethodRequired,
		ErrShippingAddressRequired,
	}

	for _, err := range fieldErrs {
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%v must wrap ErrValidation", err)
		}
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := PersistenceError("insert order", cause)

	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if PersistenceError("noop", nil) != nil {
		t.Fatal("nil cause must produce nil error")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not found", err: ErrOrderNotFound, want: true},
		{name: "joined not found", err: errors.Join(ErrOrderNotFound, errors.New("ctx")), want: true},
		{name: "other error", err: ErrInvalidStatus, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "idempotency already exists", err: ErrIdempotencyKeyAlreadyExists, want: true},
		{name: "idempotency hash mismatch", err: ErrIdempotencyHashMismatch, want: true},
		{name: "wrapped idempotency conflict", err: errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")), want: true},
		{name: "non idempotency error", err: ErrOrderNotFound, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIdempotencyConflict(tt.err); got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}
