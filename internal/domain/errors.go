package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — запрос неполный или содержит пустые обязательные поля.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidProductReference — набор товаров не совпадает с тем, что подтвердил каталог.
	ErrInvalidProductReference = errors.New("invalid product reference")
	// ErrInvalidStatus — статус не входит в перечисление.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound возвращается, если пользователь отсутствует в справочнике.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersistence — сбой хранилища.
	ErrPersistence = errors.New("persistence error")
	// ErrTransitionNotAllowed — политика переходов запретила смену статуса.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// Ошибки отдельных полей; все они оборачивают ErrValidation.
var (
	ErrOwnerRequired           = fmt.Errorf("%w: owner is required", ErrValidation)
	ErrLinesRequired           = fmt.Errorf("%w: order must contain at least one line", ErrValidation)
	ErrLineProductRequired     = fmt.Errorf("%w: line product is required", ErrValidation)
	ErrLineQuantityInvalid     = fmt.Errorf("%w: line quantity must be greater than zero", ErrValidation)
	ErrTotalAmountInvalid      = fmt.Errorf("%w: total amount must be positive", ErrValidation)
	ErrPaymentMethodRequired   = fmt.Errorf("%w: payment method is required", ErrValidation)
	ErrShippingAddressRequired = fmt.Errorf("%w: shipping address is required", ErrValidation)
)

// Ошибки idempotency-ключей.
var (
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsIdempotencyConflict проверяет, является ли ошибка конфликтом idempotency-ключа.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// PersistenceError оборачивает сбой хранилища так, чтобы errors.Is распознавал ErrPersistence.
func PersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
