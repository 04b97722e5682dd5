package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/store"
	"github.com/go-chi/chi/v5"
)

type ItemGetter interface {
	Get(ctx context.Context, id string) (domain.CatalogItem, error)
}

type CartHandler struct {
	store   *store.Store
	items   ItemGetter
	timeout time.Duration
}

func NewCartHandler(s *store.Store, items ItemGetter, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   s,
		items:   items,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ItemID string `json:"item_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type LocalBalanceRequestDTO struct {
	Amount *int `json:"amount"`
}

type BalanceDTO struct {
	Source string `json:"source"`
	Amount int    `json:"amount"`
}

type CartResponseDTO struct {
	Lines               []domain.CartLine `json:"lines"`
	Total               int               `json:"total"`
	Balance             BalanceDTO        `json:"balance"`
	Remaining           int               `json:"remaining"`
	CanCheckout         bool              `json:"can_checkout"`
	InsufficientBalance bool              `json:"insufficient_balance"`
	CartPanelOpen       bool              `json:"cart_panel_open"`
	ReceiptPanelOpen    bool              `json:"receipt_panel_open"`
}

type PanelResponseDTO struct {
	Open bool `json:"open"`
}

func cartView(snap domain.CartSnapshot) CartResponseDTO {
	return CartResponseDTO{
		Lines:               snap.Lines,
		Total:               snap.Total,
		Balance:             BalanceDTO{Source: snap.Balance.Kind(), Amount: snap.Balance.Amount()},
		Remaining:           snap.Remaining,
		CanCheckout:         snap.CanCheckout(),
		InsufficientBalance: snap.Remaining < 0,
		CartPanelOpen:       snap.CartPanelOpen,
		ReceiptPanelOpen:    snap.ReceiptPanelOpen,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartView(h.store.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	item, err := h.items.Get(ctx, req.ItemID)
	if err != nil {
		handleError(w, err)
		return
	}

	h.store.AddItem(item)
	respondJSON(w, http.StatusCreated, cartView(h.store.Snapshot()))
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	h.store.UpdateQuantity(chi.URLParam(r, "id"), *req.Quantity)
	respondJSON(w, http.StatusOK, cartView(h.store.Snapshot()))
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.store.RemoveItem(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, cartView(h.store.Snapshot()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart()
	respondJSON(w, http.StatusOK, cartView(h.store.Snapshot()))
}

// PUT /api/v1/balance/local
func (h *CartHandler) SetLocalBalance(w http.ResponseWriter, r *http.Request) {
	var req LocalBalanceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Amount == nil || *req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be a non-negative integer")
		return
	}

	h.store.SetLocalBalance(*req.Amount)
	respondJSON(w, http.StatusOK, cartView(h.store.Snapshot()))
}

// GET /api/v1/filters
func (h *CartHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Filters())
}

// PATCH /api/v1/filters
// Fields left out of the body keep their current value.
func (h *CartHandler) PatchFilters(w http.ResponseWriter, r *http.Request) {
	var patch domain.FiltersPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	respondJSON(w, http.StatusOK, h.store.SetFilters(patch))
}

// DELETE /api/v1/filters
func (h *CartHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.ResetFilters())
}

// POST /api/v1/panels/cart/toggle
func (h *CartHandler) ToggleCartPanel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PanelResponseDTO{Open: h.store.ToggleCartPanel()})
}

// POST /api/v1/panels/receipt/toggle
func (h *CartHandler) ToggleReceiptPanel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PanelResponseDTO{Open: h.store.ToggleReceiptPanel()})
}
