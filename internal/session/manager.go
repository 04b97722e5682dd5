package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/repository"
)

type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	User(ctx context.Context, token string) (*client.User, error)
	Collaborator(ctx context.Context, token string) (*client.Collaborator, error)
}

// TokenStore persists the bearer token across restarts.
type TokenStore interface {
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	DeleteToken(ctx context.Context) error
}

// LoginListener runs after every successful login, on the caller's goroutine.
type LoginListener func(ctx context.Context, s domain.Session)

// Manager owns the single authenticated session of this storefront instance.
type Manager struct {
	api    API
	tokens TokenStore
	logger *slog.Logger

	mu        sync.RWMutex
	current   *domain.Session
	listeners []LoginListener
}

func NewManager(api API, tokens TokenStore, logger *slog.Logger) *Manager {
	return &Manager{
		api:    api,
		tokens: tokens,
		logger: logger,
	}
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Balance returns the linked account balance and whether a session is active.
func (m *Manager) Balance() (int, bool) {
	s := m.Current()
	if s == nil {
		return 0, false
	}
	return s.Balance, true
}

func (m *Manager) OnLogin(l LoginListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := m.tokens.SaveToken(ctx, res.Token); err != nil {
		m.logger.WarnContext(ctx, "failed to persist session token", "error", err)
	}

	sess := &domain.Session{Token: res.Token, User: toDomainUser(res.User)}
	m.loadCollaborator(ctx, sess)

	m.mu.Lock()
	m.current = sess
	listeners := append([]LoginListener(nil), m.listeners...)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "logged in", "user_id", sess.User.ID, "balance", sess.Balance)
	for _, l := range listeners {
		l(ctx, *sess)
	}

	out := *sess
	return &out, nil
}

// Logout tells the server and always clears the local session, even when the
// server call fails.
func (m *Manager) Logout(ctx context.Context) {
	if token := m.Token(); token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.WarnContext(ctx, "server logout failed", "error", err)
		}
	}
	m.clear(ctx, "")
}

// Refresh re-reads the profile and balance for the current token. It returns nil
// without error when no session is active or the session changed meanwhile.
func (m *Manager) Refresh(ctx context.Context) (*domain.Session, error) {
	token := m.Token()
	if token == "" {
		return nil, nil
	}

	user, err := m.api.User(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("refresh user: %w", err)
	}
	sess := &domain.Session{Token: token, User: toDomainUser(*user)}
	m.loadCollaborator(ctx, sess)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Token != token {
		return nil, nil
	}
	m.current = sess
	out := *sess
	return &out, nil
}

// Restore resumes the persisted session, if any.
func (m *Manager) Restore(ctx context.Context) (*domain.Session, error) {
	token, err := m.tokens.LoadToken(ctx)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	m.mu.Lock()
	m.current = &domain.Session{Token: token}
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// HandleUnauthorized drops the session if it still uses the rejected token. A
// newer session established meanwhile is left alone.
func (m *Manager) HandleUnauthorized(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if m.clear(ctx, token) {
		m.logger.Warn("session rejected by server, logged out")
	}
}

// clear drops the session; a non-empty onlyToken restricts it to that token.
func (m *Manager) clear(ctx context.Context, onlyToken string) bool {
	m.mu.Lock()
	if onlyToken != "" && (m.current == nil || m.current.Token != onlyToken) {
		m.mu.Unlock()
		return false
	}
	m.current = nil
	m.mu.Unlock()

	if err := m.tokens.DeleteToken(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to delete persisted token", "error", err)
	}
	return true
}

func (m *Manager) loadCollaborator(ctx context.Context, sess *domain.Session) {
	col, err := m.api.Collaborator(ctx, sess.Token)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load collaborator", "error", err)
		sess.Balance = 0
		sess.BalanceLoaded = false
		return
	}
	sess.CollaboratorID = col.ID
	sess.Balance = col.Balance()
	sess.BalanceLoaded = true
}

func toDomainUser(u client.User) domain.User {
	return domain.User{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		RoleID: u.RoleID,
		Status: u.Status,
	}
}
