package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/session"
)

type mockGateway struct {
	mu       sync.Mutex
	calls    []gatewayCall
	err      error
	balance  int
	block    chan struct{}
	started  chan struct{}
	response func(req client.CheckoutRequest) *client.CheckoutResponse
}

type gatewayCall struct {
	token string
	key   string
	req   client.CheckoutRequest
}

func (g *mockGateway) Checkout(_ context.Context, token, key string, req client.CheckoutRequest) (*client.CheckoutResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{token: token, key: key, req: req})
	block, started, err := g.block, g.started, g.err
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	if g.response != nil {
		return g.response(req), nil
	}

	total := 0
	canjes := make([]client.Canje, 0, len(req.Items))
	for i, it := range req.Items {
		cost := it.Cantidad * 45
		total += cost
		canjes = append(canjes, client.Canje{ID: int64(i + 1), PremioID: it.PremioID, Cantidad: it.Cantidad, CostoTotal: cost, Estado: "pendiente"})
	}
	return &client.CheckoutResponse{
		Message: "Canje realizado",
		Total:   total,
		Balance: g.balance,
		Canjes:  canjes,
		Receipt: &client.Receipt{
			TransactionID: "TX-100",
			Datetime:      "2026-03-04 10:20:30",
			User:          &client.ReceiptUser{ID: 4, Name: "Ana", Email: "ana@example.com"},
		},
	}, nil
}

func (g *mockGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeSessions struct {
	mu         sync.Mutex
	sess       *domain.Session
	listeners  []session.LoginListener
	refreshes  int
	refreshErr error
	refreshTo  int
}

func (f *fakeSessions) Current() *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sess == nil {
		return nil
	}
	s := *f.sess
	return &s
}

func (f *fakeSessions) Refresh(context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.sess == nil {
		return nil, nil
	}
	f.sess.Balance = f.refreshTo
	s := *f.sess
	return &s, nil
}

func (f *fakeSessions) OnLogin(l session.LoginListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, l)
}

func (f *fakeSessions) login(ctx context.Context, s domain.Session) {
	f.mu.Lock()
	f.sess = &s
	listeners := append([]session.LoginListener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l(ctx, s)
	}
}

func (f *fakeSessions) logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = nil
}

func (f *fakeSessions) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

type memRecorder struct {
	mu    sync.Mutex
	saved []domain.IssuedReceipt
	err   error
}

func (m *memRecorder) SaveReceipt(_ context.Context, issued domain.IssuedReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, issued)
	return nil
}

type fakeExporter struct {
	err error
}

func (e fakeExporter) Export(_ context.Context, issued domain.IssuedReceipt) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "/tmp/" + issued.ID() + ".pdf", nil
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
