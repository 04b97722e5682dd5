package twin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/fitstore/internal/client"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	userIDCtxKey  contextKey = "user_id"
	tokenIDCtxKey contextKey = "token_id"
)

type Server struct {
	store  *MemoryStore
	tokens *TokenManager
	logger *slog.Logger
}

func NewServer(store *MemoryStore, tokens *TokenManager, logger *slog.Logger) *Server {
	return &Server{store: store, tokens: tokens, logger: logger}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/store/premios", s.ListPremios)
	r.Post("/app/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/app/logout", s.Logout)
		r.Get("/app/user", s.GetUser)
		r.Get("/app/collaborator", s.GetCollaborator)
		r.Post("/app/checkout", s.Checkout)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeValidation(w http.ResponseWriter, err *ValidationError) {
	body := map[string]any{"message": err.Message}
	if len(err.Fields) > 0 {
		body["errors"] = err.Fields
	}
	writeJSON(w, http.StatusUnprocessableEntity, body)
}

// authMiddleware rejects missing, invalid, expired and revoked bearer tokens with 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		userID, jti, err := s.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || s.store.IsRevoked(jti) {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		if _, ok := s.store.Account(userID); !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), userIDCtxKey, userID)
		ctx = context.WithValue(ctx, tokenIDCtxKey, jti)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	return r.Context().Value(userIDCtxKey).(int64)
}

// ListPremios handles GET /store/premios?limit=N.
func (s *Server) ListPremios(w http.ResponseWriter, r *http.Request) {
	limit := 15
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeValidation(w, &ValidationError{
				Message: "El límite no es válido",
				Fields:  map[string][]string{"limit": {"El campo limit debe ser un entero positivo."}},
			})
			return
		}
		limit = n
	}

	all := s.store.Premios(0)
	page := s.store.Premios(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"data":         page,
		"current_page": 1,
		"per_page":     limit,
		"total":        len(all),
	})
}

// Login handles POST /app/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidation(w, &ValidationError{
			Message: "Los datos proporcionados no son válidos",
			Fields:  map[string][]string{"email": {"El correo y la contraseña son obligatorios."}},
		})
		return
	}

	user, ok := s.store.Authenticate(req.Email, req.Password)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusOK, client.LoginResponse{User: user, Token: token})
}

// Logout handles POST /app/logout by revoking the presented token.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	jti, _ := r.Context().Value(tokenIDCtxKey).(string)
	s.store.Revoke(jti)
	writeMessage(w, http.StatusOK, "Sesión cerrada")
}

// GetUser handles GET /app/user.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	acc, _ := s.store.Account(userID(r))
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.User})
}

// GetCollaborator handles GET /app/collaborator.
func (s *Server) GetCollaborator(w http.ResponseWriter, r *http.Request) {
	acc, _ := s.store.Account(userID(r))
	writeJSON(w, http.StatusOK, map[string]any{"collaborator": acc.Collaborator})
}

// Checkout handles POST /app/checkout.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	var req client.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	res, err := s.store.Redeem(userID(r), r.Header.Get(client.IdempotencyHeader), req)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			writeValidation(w, ve)
			return
		}
		s.logger.Error("checkout failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	s.logger.Info("checkout redeemed", "user_id", userID(r), "total", res.Total, "balance", res.Balance)
	writeJSON(w, http.StatusOK, res)
}
