package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/fjod/fitstore/internal/catalog"
	"github.com/fjod/fitstore/internal/checkout"
	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, "")
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleError maps domain and remote-service errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var (
		authErr       *client.AuthError
		validationErr *client.ValidationError
		serverErr     *client.ServerError
		networkErr    *client.NetworkError
	)

	switch {
	case errors.Is(err, checkout.ErrLoginRequired):
		respondError(w, http.StatusUnauthorized, "login_required", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrInsufficientBalance):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, checkout.ErrInvalidItem):
		respondError(w, http.StatusUnprocessableEntity, "invalid_item", err.Error())
	case errors.Is(err, catalog.ErrItemNotFound), errors.Is(err, repository.ErrReceiptNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &authErr):
		respondError(w, http.StatusUnauthorized, "session_expired", authErr.Message)
	case errors.As(err, &validationErr):
		respondErrorDetails(w, http.StatusUnprocessableEntity, "validation_failed", validationErr.Message, fieldDetails(validationErr.Fields))
	case errors.As(err, &serverErr):
		respondError(w, http.StatusBadGateway, "upstream_error", "the Fitcoin service failed to process the request")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "the Fitcoin service did not answer in time")
	case errors.As(err, &networkErr):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "the Fitcoin service is unreachable")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func fieldDetails(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}
