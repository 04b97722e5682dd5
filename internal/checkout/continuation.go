package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/fitstore/internal/domain"
)

// resume re-submits a checkout parked by ErrLoginRequired. The parked intent is
// consumed before submitting, so it runs at most once. When another checkout
// is already submitting the intent is dropped and the drop is reported in
// LastError.
func (s *Service) resume(ctx context.Context, sess domain.Session) {
	s.mu.Lock()
	req := s.pending
	s.pending = nil
	s.state.PendingLogin = false
	s.mu.Unlock()

	if req == nil {
		return
	}

	s.logger.InfoContext(ctx, "resuming checkout after login", "user_id", sess.User.ID)
	_, err := s.Checkout(ctx, *req)
	switch {
	case err == nil:
	case errors.Is(err, ErrCheckoutInProgress):
		s.mu.Lock()
		s.state.LastError = fmt.Errorf("checkout waiting for login dropped: %w", err).Error()
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "checkout waiting for login dropped, another checkout is in progress", "user_id", sess.User.ID)
	default:
		s.logger.WarnContext(ctx, "resumed checkout did not complete", "error", err)
	}
}
