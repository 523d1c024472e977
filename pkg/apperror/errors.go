package apperror

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status alongside the message so handlers can map
// service failures without string matching.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Domain errors surfaced by the pharmacy lifecycle
var (
	ErrDuplicateMedicine    = &AppError{Code: http.StatusConflict, Message: "medicine already exists"}
	ErrInvalidPrice         = &AppError{Code: http.StatusBadRequest, Message: "price must be zero or greater"}
	ErrInvalidAmount        = &AppError{Code: http.StatusBadRequest, Message: "amount does not match order total"}
	ErrMissingClinicAddress = &AppError{Code: http.StatusBadRequest, Message: "clinic address required for UPI payment"}
	ErrQRUnavailable        = &AppError{Code: http.StatusBadGateway, Message: "QR code unavailable, re-select payment method to retry"}
	ErrOrderSettled         = &AppError{Code: http.StatusConflict, Message: "order already settled"}
	ErrUnpricedLines        = &AppError{Code: http.StatusBadRequest, Message: "order has unpriced pending lines"}
)

// NewValidation creates a bad-input error (rejected synchronously, never partially applied)
func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

// NewConflict creates an error for state that already exists or already moved on
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}

// NewUnauthorized creates an error for missing or rejected credentials
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: message}
}

// NewNotFound creates a not-found error for an unknown or foreign-owned id
func NewNotFound(resource string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: resource + " not found"}
}

// NewDependency creates an error for an unavailable external collaborator
func NewDependency(message string) *AppError {
	return &AppError{Code: http.StatusBadGateway, Message: message}
}

// Get converts any error to an AppError, defaulting to 500
func Get(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: http.StatusInternalServerError, Message: err.Error()}
}
