package twin

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTwin(t *testing.T) (*MemoryStore, *TokenManager, http.Handler) {
	t.Helper()
	s := NewMemoryStore()
	Seed(s)
	tokens := NewTokenManager("test-secret", time.Hour)
	srv := NewServer(s, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s, tokens, srv.Handler()
}

func call(t *testing.T, h http.Handler, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/app/login", "", client.LoginRequest{Email: email, Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res client.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestListPremios(t *testing.T) {
	_, _, h := setupTwin(t)

	rec := call(t, h, http.MethodGet, "/store/premios?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data  []client.Premio `json:"data"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, int64(1), page.Data[0].ID)
	assert.Equal(t, 5, page.Total)

	rec = call(t, h, http.MethodGet, "/store/premios?limit=abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogin(t *testing.T) {
	_, _, h := setupTwin(t)

	login(t, h, "ana@example.com")

	rec := call(t, h, http.MethodPost, "/app/login", "", client.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/app/login", "", client.LoginRequest{Email: "ana@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuth_RejectsBadAndRevokedTokens(t *testing.T) {
	_, tokens, h := setupTwin(t)

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/app/user", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/app/user", "garbage", nil).Code)

	unknown, _, err := tokens.Issue(999)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/app/user", unknown, nil).Code)

	token := login(t, h, "ana@example.com")
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/app/user", token, nil).Code)

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/app/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/app/user", token, nil).Code)
}

func TestCollaborator(t *testing.T) {
	_, _, h := setupTwin(t)
	token := login(t, h, "ana@example.com")

	rec := call(t, h, http.MethodGet, "/app/collaborator", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Collaborator client.Collaborator `json:"collaborator"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 250, res.Collaborator.Balance())
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		items   []client.CheckoutItem
		wantMsg string
	}{
		{name: "empty", email: "ana@example.com", items: nil, wantMsg: "Debe incluir al menos un premio"},
		{name: "unknown premio", email: "ana@example.com", items: []client.CheckoutItem{{PremioID: 77, Cantidad: 1}}, wantMsg: "Premio no disponible"},
		{name: "inactive premio", email: "ana@example.com", items: []client.CheckoutItem{{PremioID: 5, Cantidad: 1}}, wantMsg: "Premio no disponible"},
		{name: "zero quantity", email: "ana@example.com", items: []client.CheckoutItem{{PremioID: 1, Cantidad: 0}}, wantMsg: "Cantidad inválida"},
		{name: "stock", email: "ana@example.com", items: []client.CheckoutItem{{PremioID: 4, Cantidad: 3}}, wantMsg: "Stock insuficiente para Audífonos inalámbricos"},
		{name: "balance", email: "luis@example.com", items: []client.CheckoutItem{{PremioID: 1, Cantidad: 1}}, wantMsg: "Saldo insuficiente"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, h := setupTwin(t)
			token := login(t, h, tt.email)

			rec := call(t, h, http.MethodPost, "/app/checkout", token, client.CheckoutRequest{Items: tt.items})
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body.Message)

			acc, _ := s.Account(1)
			assert.Equal(t, 250, acc.Collaborator.Balance(), "failed checkout must not debit")
		})
	}
}

func TestCheckout_DebitsAndIsIdempotent(t *testing.T) {
	s, _, h := setupTwin(t)
	fixed := time.Date(2026, 3, 4, 10, 20, 30, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })
	token := login(t, h, "ana@example.com")

	req := client.CheckoutRequest{
		Items:         []client.CheckoutItem{{PremioID: 1, Cantidad: 2}, {PremioID: 2, Cantidad: 1}},
		AgenciaRetiro: "Central",
	}

	rec := call(t, h, http.MethodPost, "/app/checkout", token, req, client.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var res client.CheckoutResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 100, res.Total)
	assert.Equal(t, 150, res.Balance)
	require.Len(t, res.Canjes, 2)
	assert.Equal(t, 90, res.Canjes[0].CostoTotal)
	require.NotNil(t, res.Receipt)
	assert.NotEmpty(t, res.Receipt.TransactionID)
	assert.Equal(t, "2026-03-04T10:20:30Z", res.Receipt.Datetime)
	require.NotNil(t, res.Receipt.Agency)
	assert.Equal(t, "Central", *res.Receipt.Agency)
	assert.Equal(t, "ana@example.com", res.Receipt.User.Email)

	rec = call(t, h, http.MethodPost, "/app/checkout", token, req, client.IdempotencyHeader, "key-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var again client.CheckoutResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&again))
	assert.Equal(t, res.Receipt.TransactionID, again.Receipt.TransactionID)
	assert.Equal(t, 150, s.Balance(1))

	premios := s.Premios(0)
	assert.Equal(t, 3, premios[0].Stock)
	assert.Equal(t, 19, premios[1].Stock)
}

func TestTokenManager_Expiry(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }

	token, jti, err := m.Issue(7)
	require.NoError(t, err)

	id, gotJTI, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, jti, gotJTI)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, _, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("other", time.Minute)
	_, _, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
