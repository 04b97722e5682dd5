package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/session"
)

// Gateway submits a cart to the remote checkout endpoint.
type Gateway interface {
	Checkout(ctx context.Context, token, idempotencyKey string, req client.CheckoutRequest) (*client.CheckoutResponse, error)
}

type Sessions interface {
	Current() *domain.Session
	Refresh(ctx context.Context) (*domain.Session, error)
	OnLogin(l session.LoginListener)
}

type Cart interface {
	Snapshot() domain.CartSnapshot
	ApplyCheckout(issued domain.IssuedReceipt) bool
}

// ReceiptRecorder keeps issued receipts for later listing and export.
type ReceiptRecorder interface {
	SaveReceipt(ctx context.Context, issued domain.IssuedReceipt) error
}

// ReceiptExporter writes a portable copy of a receipt and returns where it went.
type ReceiptExporter interface {
	Export(ctx context.Context, issued domain.IssuedReceipt) (string, error)
}

type Request struct {
	Agency string `json:"agencia_retiro,omitempty"`
	Notes  string `json:"observaciones,omitempty"`
}

type Result struct {
	Receipt    domain.IssuedReceipt `json:"receipt"`
	ExportPath string               `json:"export_path,omitempty"`
	ExportErr  string               `json:"export_error,omitempty"`
}

type Option func(*Service)

func WithRecorder(r ReceiptRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithExporter(e ReceiptExporter) Option {
	return func(s *Service) { s.exporter = e }
}

// Service drives a single storefront through Idle, Submitting and Success or
// Failed. At most one checkout is outstanding at a time.
type Service struct {
	gateway  Gateway
	sessions Sessions
	cart     Cart
	recorder ReceiptRecorder
	exporter ReceiptExporter
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   domain.CheckoutState
	pending *Request
}

func NewService(gateway Gateway, sessions Sessions, cart Cart, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gateway:  gateway,
		sessions: sessions,
		cart:     cart,
		logger:   logger,
		now:      time.Now,
		state:    domain.CheckoutState{Status: domain.CheckoutStatusIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	sessions.OnLogin(s.resume)
	return s
}

func (s *Service) State() domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CancelPending drops a checkout waiting for login.
func (s *Service) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.state.PendingLogin = false
}

// transition must be called with s.mu held.
func (s *Service) transition(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(s.state.Status, to) {
		return IllegalTransitionError
	}
	s.state.Status = to
	return nil
}
