package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
)

type Sessions interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context)
	Refresh(ctx context.Context) (*domain.Session, error)
	Current() *domain.Session
}

type CheckoutState interface {
	State() domain.CheckoutState
}

type SessionHandler struct {
	sessions Sessions
	checkout CheckoutState
	timeout  time.Duration
}

func NewSessionHandler(sessions Sessions, checkout CheckoutState, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		checkout: checkout,
		timeout:  timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponseDTO struct {
	Authenticated bool                  `json:"authenticated"`
	User          *domain.User          `json:"user,omitempty"`
	Balance       int                   `json:"balance"`
	BalanceLoaded bool                  `json:"balance_loaded"`
	Checkout      *domain.CheckoutState `json:"checkout,omitempty"`
}

func sessionView(s *domain.Session) SessionResponseDTO {
	if s == nil {
		return SessionResponseDTO{}
	}
	u := s.User
	return SessionResponseDTO{
		Authenticated: true,
		User:          &u,
		Balance:       s.Balance,
		BalanceLoaded: s.BalanceLoaded,
	}
}

// POST /api/v1/session/login
// A checkout parked for login runs before the response is written; its outcome is
// reported under "checkout".
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials", authErr.Message)
			return
		}
		handleError(w, err)
		return
	}

	view := sessionView(h.sessions.Current())
	if view.User == nil {
		view = sessionView(sess)
	}
	state := h.checkout.State()
	view.Checkout = &state
	respondJSON(w, http.StatusOK, view)
}

// POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.sessions.Logout(ctx)
	respondJSON(w, http.StatusOK, sessionView(nil))
}

// GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionView(h.sessions.Current()))
}

// POST /api/v1/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, err := h.sessions.Refresh(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionView(sess))
}
