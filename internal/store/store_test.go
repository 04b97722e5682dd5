package store

import (
	"sync"
	"testing"

	"github.com/fjod/fitstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu   sync.Mutex
	sess *domain.Session
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

func (f *fakeSessions) set(s *domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = s
}

func item(id string, price int) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Name: "Item " + id, Fitcoins: price, Stock: 10, Category: domain.DefaultCategory}
}

func TestAddItem_GuestScenario(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	p := item("p1", 45)

	s.AddItem(p)
	s.AddItem(p)

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 90, s.CartTotal())
	assert.Equal(t, 250, s.EffectiveBalance())
	assert.Equal(t, 160, s.RemainingBalance())
	assert.True(t, s.CanCheckout())
	assert.Equal(t, "guest", s.BalanceSource().Kind())
}

func TestAuthenticatedBalance_Insufficient(t *testing.T) {
	sessions := &fakeSessions{}
	sessions.set(&domain.Session{Token: "t", Balance: 30, BalanceLoaded: true})
	s := New(sessions, 250)

	s.AddItem(item("p1", 45))

	assert.Equal(t, 30, s.EffectiveBalance())
	assert.Equal(t, "authenticated", s.BalanceSource().Kind())
	assert.Equal(t, -15, s.RemainingBalance())
	assert.False(t, s.CanCheckout())
}

func TestBalanceSource_SwitchesWithSession(t *testing.T) {
	sessions := &fakeSessions{}
	s := New(sessions, 250)
	assert.Equal(t, 250, s.EffectiveBalance())

	sessions.set(&domain.Session{Token: "t", Balance: 80})
	assert.Equal(t, 80, s.EffectiveBalance())

	sessions.set(nil)
	assert.Equal(t, 250, s.EffectiveBalance())
}

func TestCanCheckout_EmptyCart(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	assert.False(t, s.CanCheckout())
	assert.Equal(t, 0, s.CartTotal())
	assert.Equal(t, 250, s.RemainingBalance())
}

func TestCanCheckout_ExactBalance(t *testing.T) {
	s := New(&fakeSessions{}, 90)
	s.AddItem(item("p1", 45))
	s.AddItem(item("p1", 45))
	assert.Equal(t, 0, s.RemainingBalance())
	assert.True(t, s.CanCheckout())
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		qty       int
		wantLines int
		wantQty   int
	}{
		{name: "set to 3", qty: 3, wantLines: 1, wantQty: 3},
		{name: "zero removes", qty: 0, wantLines: 0},
		{name: "negative clamps and removes", qty: -1, wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeSessions{}, 250)
			s.AddItem(item("p1", 10))

			s.UpdateQuantity("p1", tt.qty)

			cart := s.Cart()
			require.Len(t, cart, tt.wantLines)
			if tt.wantLines > 0 {
				assert.Equal(t, tt.wantQty, cart[0].Quantity)
			}
		})
	}
}

func TestUpdateQuantity_UnknownIDIgnored(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.AddItem(item("p1", 10))
	s.UpdateQuantity("missing", 5)
	require.Len(t, s.Cart(), 1)
	assert.Equal(t, 1, s.Cart()[0].Quantity)
}

func TestRemoveItem_PreservesOrder(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.AddItem(item("a", 1))
	s.AddItem(item("b", 2))
	s.AddItem(item("c", 3))

	s.RemoveItem("b")
	s.RemoveItem("zzz")

	cart := s.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "a", cart[0].Item.ID)
	assert.Equal(t, "c", cart[1].Item.ID)
}

func TestClearCart(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.AddItem(item("a", 1))
	s.ClearCart()
	assert.Empty(t, s.Cart())
	assert.NotNil(t, s.Cart())
}

func TestCart_ReturnsCopy(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.AddItem(item("a", 1))

	cart := s.Cart()
	cart[0].Quantity = 99

	assert.Equal(t, 1, s.Cart()[0].Quantity)
}

func TestFilters_MergeAndReset(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	assert.False(t, s.HasActiveFilters())

	search := "gorra"
	cats := []string{"Ropa"}
	got := s.SetFilters(domain.FiltersPatch{Search: &search})
	assert.Equal(t, "gorra", got.Search)

	got = s.SetFilters(domain.FiltersPatch{Categories: &cats})
	assert.Equal(t, "gorra", got.Search)
	assert.Equal(t, []string{"Ropa"}, got.Categories)
	assert.True(t, s.HasActiveFilters())

	cats[0] = "changed"
	assert.Equal(t, []string{"Ropa"}, s.Filters().Categories)

	reset := s.ResetFilters()
	assert.Equal(t, domain.DefaultFilters(), reset)
	assert.False(t, s.HasActiveFilters())
}

func TestTogglePanels(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	assert.True(t, s.ToggleCartPanel())
	assert.False(t, s.ToggleCartPanel())
	assert.True(t, s.ToggleReceiptPanel())

	snap := s.Snapshot()
	assert.False(t, snap.CartPanelOpen)
	assert.True(t, snap.ReceiptPanelOpen)
}

func TestSetLocalBalance(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.SetLocalBalance(10)
	assert.Equal(t, 10, s.EffectiveBalance())
}

func TestApplyCheckout_ExactlyOnce(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	s.AddItem(item("a", 10))
	s.ToggleCartPanel()

	issued := domain.IssuedReceipt{
		RequestID: "req-1",
		Receipt:   domain.Receipt{TransactionID: "tx-1", Total: 10, Balance: 240},
		Lines:     []domain.ReceiptLine{{ItemID: "a", Name: "Item a", Quantity: 1, UnitPrice: 10}},
	}

	require.True(t, s.ApplyCheckout(issued))
	assert.Empty(t, s.Cart())
	snap := s.Snapshot()
	assert.False(t, snap.CartPanelOpen)
	assert.True(t, snap.ReceiptPanelOpen)

	got := s.Receipt()
	require.NotNil(t, got)
	assert.Equal(t, "tx-1", got.ID())

	s.AddItem(item("b", 5))
	assert.False(t, s.ApplyCheckout(issued))
	assert.Len(t, s.Cart(), 1, "second apply must not clear the new cart")
}

func TestReceipt_NilBeforeCheckout(t *testing.T) {
	s := New(&fakeSessions{}, 250)
	assert.Nil(t, s.Receipt())
}

func TestConcurrentMutations(t *testing.T) {
	s := New(&fakeSessions{}, 1000)
	p := item("p1", 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(p)
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 50, cart[0].Quantity)
	assert.Equal(t, 950, s.RemainingBalance())
}
