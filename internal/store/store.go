// Package store holds the cart/session state machine of one storefront instance.
//
// All mutations are serialised by a single mutex. Derived amounts (cart total,
// effective and remaining balance) are recomputed on every read and never cached.
package store

import (
	"sync"
	"time"

	"github.com/fjod/fitstore/internal/domain"
)

// SessionReader exposes the active session, or nil when browsing as a guest.
type SessionReader interface {
	Current() *domain.Session
}

type Store struct {
	sessions SessionReader
	now      func() time.Time

	mu               sync.RWMutex
	cart             []domain.CartLine
	localBalance     int
	filters          domain.Filters
	cartPanelOpen    bool
	receiptPanelOpen bool
	receipt          *domain.IssuedReceipt
	applied          map[string]struct{}
}

func New(sessions SessionReader, guestBalance int) *Store {
	return &Store{
		sessions:     sessions,
		now:          time.Now,
		cart:         []domain.CartLine{},
		localBalance: guestBalance,
		filters:      domain.DefaultFilters(),
		applied:      make(map[string]struct{}),
	}
}

// AddItem increments the line for item, or appends a new line with quantity 1.
func (s *Store) AddItem(item domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].Item.ID == item.ID {
			s.cart[i].Quantity++
			return
		}
	}
	s.cart = append(s.cart, domain.CartLine{Item: item, Quantity: 1})
}

// UpdateQuantity clamps qty at zero; a zero quantity removes the line. Unknown ids
// are ignored.
func (s *Store) UpdateQuantity(id string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	if qty <= 0 {
		s.removeAt(idx)
		return
	}
	s.cart[idx].Quantity = qty
}

func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.removeAt(idx)
	}
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = []domain.CartLine{}
}

// SetFilters merges the patch into the current filters and returns the result.
func (s *Store) SetFilters(p domain.FiltersPatch) domain.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters.Merge(p)
	return s.filters.Clone()
}

func (s *Store) ResetFilters() domain.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = domain.DefaultFilters()
	return s.filters.Clone()
}

func (s *Store) Filters() domain.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// HasActiveFilters reports whether the filters differ from the defaults.
func (s *Store) HasActiveFilters() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.IsActive()
}

func (s *Store) ToggleCartPanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartPanelOpen = !s.cartPanelOpen
	return s.cartPanelOpen
}

func (s *Store) ToggleReceiptPanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptPanelOpen = !s.receiptPanelOpen
	return s.receiptPanelOpen
}

func (s *Store) SetLocalBalance(amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localBalance = amount
}

func (s *Store) Cart() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CopyLines(s.cart)
}

func (s *Store) BalanceSource() domain.BalanceSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ResolveBalanceSource(s.localBalance, s.sessions.Current())
}

func (s *Store) EffectiveBalance() int {
	return s.BalanceSource().Amount()
}

func (s *Store) CartTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CartTotal(s.cart)
}

// RemainingBalance may be negative; it is still reported so the UI can flag it.
func (s *Store) RemainingBalance() int {
	return s.Snapshot().Remaining
}

func (s *Store) CanCheckout() bool {
	return s.Snapshot().CanCheckout()
}

// Snapshot reads the cart, balance and panel flags under one lock.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := domain.CopyLines(s.cart)
	total := domain.CartTotal(lines)
	balance := domain.ResolveBalanceSource(s.localBalance, s.sessions.Current())
	return domain.CartSnapshot{
		Lines:            lines,
		Total:            total,
		Balance:          balance,
		Remaining:        balance.Amount() - total,
		CartPanelOpen:    s.cartPanelOpen,
		ReceiptPanelOpen: s.receiptPanelOpen,
		CapturedAt:       s.now(),
	}
}

// ApplyCheckout commits a successful checkout: the cart is cleared, the cart panel
// closed and the receipt panel opened with the given receipt. It applies at most
// once per request id and reports whether it did.
func (s *Store) ApplyCheckout(issued domain.IssuedReceipt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.applied[issued.RequestID]; done {
		return false
	}
	s.applied[issued.RequestID] = struct{}{}

	r := issued.Clone()
	s.cart = []domain.CartLine{}
	s.cartPanelOpen = false
	s.receiptPanelOpen = true
	s.receipt = &r
	return true
}

// Receipt returns the receipt of the last successful checkout, or nil.
func (s *Store) Receipt() *domain.IssuedReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.receipt == nil {
		return nil
	}
	r := s.receipt.Clone()
	return &r
}

func (s *Store) indexOf(id string) int {
	for i := range s.cart {
		if s.cart[i].Item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(idx int) {
	s.cart = append(s.cart[:idx:idx], s.cart[idx+1:]...)
}
