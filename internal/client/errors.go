package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// NetworkError means no response was received (transport failure, timeout or an
// open circuit breaker).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError is a 401 or 419 response: the session expired or was rejected.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (%d): %s", e.Status, e.Message)
}

// ValidationError is any other 4xx response. Fields holds per-field messages when
// the server sends them.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request rejected (%d): %s", e.Status, e.Message)
}

type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

type apiErrorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == 419
}

func classify(status int, body []byte) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.Message
	if msg == "" {
		msg = parsed.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case isAuthStatus(status):
		return &AuthError{Status: status, Message: msg}
	case status >= 500:
		return &ServerError{Status: status, Message: msg}
	default:
		return &ValidationError{Status: status, Message: msg, Fields: parsed.Errors}
	}
}
