package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/google/uuid"
)

// Checkout submits the current cart. Without a session the request is parked until
// the next successful login and ErrLoginRequired is returned.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	requestID, token, snap, body, err := s.begin(req)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("request_id", requestID, "items", len(snap.Lines), "total", snap.Total)
	log.InfoContext(ctx, "submitting checkout")

	// An in-flight checkout is never cancelled by the caller going away.
	res, err := s.gateway.Checkout(context.WithoutCancel(ctx), token, requestID, body)
	if err != nil {
		s.fail(err)
		log.WarnContext(ctx, "checkout failed", "error", err)
		return nil, fmt.Errorf("checkout %s: %w", requestID, err)
	}

	issued := toIssuedReceipt(requestID, snap.ReceiptLines(), res, req.Agency, s.now())
	return s.complete(context.WithoutCancel(ctx), issued), nil
}

// begin validates the request and moves to Submitting under one lock.
func (s *Service) begin(req Request) (string, string, domain.CartSnapshot, client.CheckoutRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap domain.CartSnapshot
	var body client.CheckoutRequest

	if s.state.Status == domain.CheckoutStatusSubmitting {
		return "", "", snap, body, ErrCheckoutInProgress
	}

	sess := s.sessions.Current()
	if sess == nil {
		r := req
		s.pending = &r
		s.state.PendingLogin = true
		return "", "", snap, body, ErrLoginRequired
	}

	snap = s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return "", "", snap, body, ErrEmptyCart
	}
	if !snap.CanCheckout() {
		return "", "", snap, body, ErrInsufficientBalance
	}

	body, err := toCheckoutRequest(snap, req)
	if err != nil {
		return "", "", snap, body, err
	}

	if err := s.transition(domain.CheckoutStatusSubmitting); err != nil {
		return "", "", snap, body, err
	}
	requestID := uuid.New().String()
	s.state.RequestID = requestID
	s.state.LastError = ""
	s.state.PendingLogin = false
	s.pending = nil

	return requestID, sess.Token, snap, body, nil
}

// fail records the error and returns to Idle; the cart is not touched.
func (s *Service) fail(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.transition(domain.CheckoutStatusFailed)
	s.state.LastError = cause.Error()
	_ = s.transition(domain.CheckoutStatusIdle)
}

// complete applies the receipt to the cart once, then runs the follow-up effects.
// Follow-up failures are logged and never undo the checkout.
func (s *Service) complete(ctx context.Context, issued domain.IssuedReceipt) *Result {
	applied := s.cart.ApplyCheckout(issued)

	s.mu.Lock()
	_ = s.transition(domain.CheckoutStatusSuccess)
	s.mu.Unlock()

	log := s.logger.With("request_id", issued.RequestID, "transaction_id", issued.Receipt.TransactionID)
	log.InfoContext(ctx, "checkout succeeded", "total", issued.Receipt.Total, "balance", issued.Receipt.Balance, "applied", applied)

	if _, err := s.sessions.Refresh(ctx); err != nil {
		log.WarnContext(ctx, "balance refresh after checkout failed", "error", err)
	}

	if s.recorder != nil {
		if err := s.recorder.SaveReceipt(ctx, issued); err != nil {
			log.ErrorContext(ctx, "failed to record receipt", "error", err)
		}
	}

	result := &Result{Receipt: issued}
	if s.exporter != nil {
		path, err := s.exporter.Export(ctx, issued)
		if err != nil {
			log.WarnContext(ctx, "receipt export failed", "error", err)
			result.ExportErr = err.Error()
		} else {
			result.ExportPath = path
		}
	}
	return result
}

func toCheckoutRequest(snap domain.CartSnapshot, req Request) (client.CheckoutRequest, error) {
	items := make([]client.CheckoutItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		id, err := strconv.ParseInt(l.Item.ID, 10, 64)
		if err != nil {
			return client.CheckoutRequest{}, fmt.Errorf("%w: %q", ErrInvalidItem, l.Item.ID)
		}
		items = append(items, client.CheckoutItem{PremioID: id, Cantidad: l.Quantity})
	}
	return client.CheckoutRequest{
		Items:         items,
		AgenciaRetiro: req.Agency,
		Observaciones: req.Notes,
	}, nil
}

// IsClientError reports whether err was caused by the request itself rather than
// by the remote service being unavailable.
func IsClientError(err error) bool {
	var ve *client.ValidationError
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.As(err, &ve)
}
