// Package errors provides application-level error types and utilities.
// It defines the error taxonomy surfaced by subscription operations: validation,
// delegation, signing, chain reads, transactions and backend failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation_error"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeNotDelegated      ErrorType = "not_delegated"
	ErrorTypeSigningRejected   ErrorType = "signing_rejected"
	ErrorTypeChainRead         ErrorType = "chain_read_error"
	ErrorTypeTransactionFailed ErrorType = "transaction_failed"
	ErrorTypeBackend           ErrorType = "backend_error"
	ErrorTypeUnsupportedChain  ErrorType = "unsupported_chain"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeForbidden         ErrorType = "forbidden"
	ErrorTypeInternal          ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newAppError(errType ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewNotDelegatedError creates the error returned when an account is not
// delegated to the expected implementation on the given chain.
func NewNotDelegatedError(chainID int64) *AppError {
	return newAppError(ErrorTypeNotDelegated, http.StatusPreconditionFailed,
		fmt.Sprintf("Not delegated on this chain (%d). Switch your wallet to the chain you delegated on (e.g. Anvil 31337 / localhost 1337), or delegate there first.", chainID),
		nil)
}

// NewSigningRejectedError creates a new signing rejected error
func NewSigningRejectedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeSigningRejected, http.StatusForbidden, message, details)
}

// NewChainReadError creates a new chain read error
func NewChainReadError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeChainRead, http.StatusBadGateway, message, details)
}

// NewTransactionFailedError creates a new transaction failed error
func NewTransactionFailedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeTransactionFailed, http.StatusBadGateway, message, details)
}

// NewBackendError creates a backend error carrying the backend's message.
// An empty message falls back to the generic status-coded message.
func NewBackendError(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("Backend failed with status %d", status)
	}
	code := status
	if code < 400 {
		code = http.StatusBadGateway
	}
	return newAppError(ErrorTypeBackend, code, message, nil)
}

// NewUnsupportedChainError creates the error for a chain id with no RPC configured.
func NewUnsupportedChainError(chainID int64) *AppError {
	return newAppError(ErrorTypeUnsupportedChain, http.StatusBadRequest,
		fmt.Sprintf("No RPC configured for chain %d", chainID), nil)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsNotDelegatedError checks if the error is a not delegated error
func IsNotDelegatedError(err error) bool {
	return isType(err, ErrorTypeNotDelegated)
}

// IsSigningRejectedError checks if the error is a signing rejected error
func IsSigningRejectedError(err error) bool {
	return isType(err, ErrorTypeSigningRejected)
}

// IsChainReadError checks if the error is a chain read error
func IsChainReadError(err error) bool {
	return isType(err, ErrorTypeChainRead)
}

// IsTransactionFailedError checks if the error is a transaction failed error
func IsTransactionFailedError(err error) bool {
	return isType(err, ErrorTypeTransactionFailed)
}

// IsBackendError checks if the error is a backend error
func IsBackendError(err error) bool {
	return isType(err, ErrorTypeBackend)
}

// IsForbiddenError checks if the error is a forbidden error
func IsForbiddenError(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsUnsupportedChainError checks if the error is an unsupported chain error
func IsUnsupportedChainError(err error) bool {
	return isType(err, ErrorTypeUnsupportedChain)
}

// Message returns the human-readable message for err. AppErrors yield their
// Message so backend and validation text reach the caller verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
