package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	m            sync.Mutex
	loginErr     error
	logoutErr    error
	userErr      error
	collabErr    error
	balance      int
	logoutTokens []string
	nextToken    string
}

func (a *mockAPI) Login(_ context.Context, email, _ string) (*client.LoginResponse, error) {
	a.m.Lock()
	defer a.m.Unlock()
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	token := a.nextToken
	if token == "" {
		token = "tok-" + email
	}
	return &client.LoginResponse{User: client.User{ID: 4, Name: "Ana", Email: email}, Token: token}, nil
}

func (a *mockAPI) Logout(_ context.Context, token string) error {
	a.m.Lock()
	defer a.m.Unlock()
	a.logoutTokens = append(a.logoutTokens, token)
	return a.logoutErr
}

func (a *mockAPI) User(context.Context, string) (*client.User, error) {
	a.m.Lock()
	defer a.m.Unlock()
	if a.userErr != nil {
		return nil, a.userErr
	}
	return &client.User{ID: 4, Name: "Ana", Email: "ana@example.com"}, nil
}

func (a *mockAPI) Collaborator(context.Context, string) (*client.Collaborator, error) {
	a.m.Lock()
	defer a.m.Unlock()
	if a.collabErr != nil {
		return nil, a.collabErr
	}
	return &client.Collaborator{ID: 9, FitcoinAccount: &client.FitcoinAccount{Balance: a.balance}}, nil
}

func (a *mockAPI) setBalance(b int) {
	a.m.Lock()
	defer a.m.Unlock()
	a.balance = b
}

type memTokens struct {
	m     sync.Mutex
	token string
}

func (s *memTokens) SaveToken(_ context.Context, token string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.token = token
	return nil
}

func (s *memTokens) LoadToken(context.Context) (string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.token == "" {
		return "", repository.ErrTokenNotFound
	}
	return s.token, nil
}

func (s *memTokens) DeleteToken(context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.token = ""
	return nil
}

func newTestManager(api *mockAPI, tokens *memTokens) *Manager {
	return NewManager(api, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLogin_PersistsTokenAndLoadsBalance(t *testing.T) {
	api := &mockAPI{balance: 250}
	tokens := &memTokens{}
	m := newTestManager(api, tokens)

	sess, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-ana@example.com", sess.Token)
	assert.Equal(t, 250, sess.Balance)
	assert.True(t, sess.BalanceLoaded)
	assert.Equal(t, int64(9), sess.CollaboratorID)
	assert.Equal(t, "tok-ana@example.com", tokens.token)

	balance, ok := m.Balance()
	assert.True(t, ok)
	assert.Equal(t, 250, balance)
}

func TestLogin_FailureLeavesNoSession(t *testing.T) {
	api := &mockAPI{loginErr: &client.ValidationError{Status: 422, Message: "Credenciales inválidas"}}
	m := newTestManager(api, &memTokens{})

	_, err := m.Login(context.Background(), "ana@example.com", "bad")
	var valErr *client.ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Nil(t, m.Current())
}

func TestLogin_CollaboratorFailureKeepsSessionWithZeroBalance(t *testing.T) {
	api := &mockAPI{collabErr: errors.New("boom")}
	m := newTestManager(api, &memTokens{})

	sess, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Balance)
	assert.False(t, sess.BalanceLoaded)
	assert.NotNil(t, m.Current())
}

func TestLogin_NotifiesListeners(t *testing.T) {
	m := newTestManager(&mockAPI{balance: 5}, &memTokens{})

	var got []domain.Session
	m.OnLogin(func(_ context.Context, s domain.Session) { got = append(got, s) })

	_, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Balance)
}

func TestLogout_ClearsEvenWhenServerFails(t *testing.T) {
	api := &mockAPI{logoutErr: errors.New("offline")}
	tokens := &memTokens{}
	m := newTestManager(api, tokens)
	_, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	m.Logout(context.Background())

	assert.Nil(t, m.Current())
	assert.Empty(t, m.Token())
	assert.Empty(t, tokens.token)
	assert.Equal(t, []string{"tok-ana@example.com"}, api.logoutTokens)
}

func TestRefresh_UpdatesBalance(t *testing.T) {
	api := &mockAPI{balance: 100}
	m := newTestManager(api, &memTokens{})
	_, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	api.setBalance(10)
	sess, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sess.Balance)
	assert.Equal(t, 10, m.Current().Balance)
}

func TestRefresh_WithoutSession(t *testing.T) {
	m := newTestManager(&mockAPI{}, &memTokens{})

	sess, err := m.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestRestore_FromPersistedToken(t *testing.T) {
	tokens := &memTokens{token: "persisted"}
	m := newTestManager(&mockAPI{balance: 42}, tokens)

	sess, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "persisted", sess.Token)
	assert.Equal(t, 42, sess.Balance)
	assert.Equal(t, "Ana", sess.User.Name)
}

func TestRestore_NoToken(t *testing.T) {
	m := newTestManager(&mockAPI{}, &memTokens{})

	sess, err := m.Restore(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestHandleUnauthorized_OnlyDropsMatchingToken(t *testing.T) {
	api := &mockAPI{nextToken: "new"}
	tokens := &memTokens{}
	m := newTestManager(api, tokens)
	_, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	m.HandleUnauthorized("old")
	assert.Equal(t, "new", m.Token())
	assert.Equal(t, "new", tokens.token)

	m.HandleUnauthorized("new")
	assert.Nil(t, m.Current())
	assert.Empty(t, tokens.token)
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	m := newTestManager(&mockAPI{balance: 7}, &memTokens{})
	_, err := m.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	s := m.Current()
	s.Balance = 1000
	assert.Equal(t, 7, m.Current().Balance)
}
