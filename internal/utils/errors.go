package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure the way callers need to react to it.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
)

// AppError is a classified, caller-facing failure.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Field   string

	// AvailableStock is set on INSUFFICIENT_STOCK.
	AvailableStock *int
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Common application errors used across services.
var (
	ErrInvalidCredentials  = &AppError{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid credentials"}
	ErrAccountInactive     = &AppError{Kind: KindUnauthorized, Code: "ACCOUNT_INACTIVE", Message: "account is inactive"}
	ErrProductNotFound     = &AppError{Kind: KindNotFound, Code: "PRODUCT_NOT_FOUND", Message: "product not found"}
	ErrCategoryNotFound    = &AppError{Kind: KindNotFound, Code: "CATEGORY_NOT_FOUND", Message: "category not found"}
	ErrSupplierNotFound    = &AppError{Kind: KindNotFound, Code: "SUPPLIER_NOT_FOUND", Message: "supplier not found"}
	ErrStoreNotFound       = &AppError{Kind: KindNotFound, Code: "STORE_NOT_FOUND", Message: "store not found"}
	ErrSubLocationNotFound = &AppError{Kind: KindNotFound, Code: "SUB_LOCATION_NOT_FOUND", Message: "sub-location not found"}
	ErrAlertNotFound       = &AppError{Kind: KindNotFound, Code: "ALERT_NOT_FOUND", Message: "alert not found"}
	ErrUserNotFound        = &AppError{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrDuplicateSKU        = &AppError{Kind: KindConflict, Code: "DUPLICATE_SKU", Message: "sku already exists in this store"}
	ErrDuplicateBarcode    = &AppError{Kind: KindConflict, Code: "DUPLICATE_BARCODE", Message: "barcode already exists"}
	ErrDuplicateName       = &AppError{Kind: KindConflict, Code: "DUPLICATE_NAME", Message: "name already exists"}
	ErrDuplicateEmail      = &AppError{Kind: KindConflict, Code: "DUPLICATE_EMAIL", Message: "email already registered"}
	ErrInsufficientStock   = &AppError{Kind: KindConflict, Code: "INSUFFICIENT_STOCK", Message: "Insufficient stock"}
	ErrInUse               = &AppError{Kind: KindConflict, Code: "IN_USE", Message: "still referenced by products"}
	ErrForbidden           = &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: "not allowed for this account"}
)

// NewValidationError reports malformed input for a specific field.
func NewValidationError(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Field: field, Message: message}
}

// NewConflictError wraps a sentinel conflict with a more specific message.
func NewConflictError(base *AppError, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: base.Code, Message: message}
}

// NewNotFoundError reports a missing (or invisible) resource.
func NewNotFoundError(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

// NewInsufficientStockError reports how much stock is actually available.
func NewInsufficientStockError(available int) *AppError {
	return &AppError{
		Kind:           KindConflict,
		Code:           ErrInsufficientStock.Code,
		Message:        ErrInsufficientStock.Message,
		AvailableStock: &available,
	}
}

// AsAppError unwraps err into an *AppError when it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
