package domain

import (
	"fmt"
	"net/http"
)

// Fixed client-facing messages.
const (
	MsgNoCredential      = "Authentication required: no credential was supplied."
	MsgInvalidCredential = "Authentication failed: the supplied credential is invalid."
	MsgInternal          = "An unexpected error occurred."
	MsgRateLimited       = "Too many requests. Please try again later."
)

// AppError is the base domain error type.
type AppError struct {
	Status  int
	Message string
	Details string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Response renders the error as the JSON body every endpoint returns.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{StatusCode: e.Status, Message: e.Message, Details: e.Details}
}

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	StatusCode int    `json:"StatusCode"`
	Message    string `json:"Message"`
	Details    string `json:"Details"`
}

// Standard domain error constructors.

func ErrValidation(details string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: "Validation failed.", Details: details}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func ErrUnauthenticated() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: MsgNoCredential}
}

func ErrInvalidCredential() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: MsgInvalidCredential}
}

func ErrRateLimited(details string) *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Message: MsgRateLimited, Details: details}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}
