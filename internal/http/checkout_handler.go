package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/fitstore/internal/checkout"
	"github.com/fjod/fitstore/internal/domain"
	"github.com/fjod/fitstore/internal/receipt"
	"github.com/go-chi/chi/v5"
)

type Checkout interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	State() domain.CheckoutState
	CancelPending()
}

type ReceiptSource interface {
	Receipt() *domain.IssuedReceipt
}

// ReceiptHistory is optional; without it only the current receipt is served.
type ReceiptHistory interface {
	ListReceipts(ctx context.Context, limit int) ([]domain.IssuedReceipt, error)
	GetReceipt(ctx context.Context, id string) (*domain.IssuedReceipt, error)
}

type CheckoutHandler struct {
	checkout Checkout
	current  ReceiptSource
	history  ReceiptHistory
	renderer *receipt.Renderer
	timeout  time.Duration
}

func NewCheckoutHandler(c Checkout, current ReceiptSource, history ReceiptHistory, renderer *receipt.Renderer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: c,
		current:  current,
		history:  history,
		renderer: renderer,
		timeout:  timeout,
	}
}

type CheckoutResponseDTO struct {
	State       domain.CheckoutState `json:"state"`
	Receipt     domain.IssuedReceipt `json:"receipt"`
	ExportPath  string               `json:"export_path,omitempty"`
	ExportError string               `json:"export_error,omitempty"`
}

type ReceiptListDTO struct {
	Receipts []domain.IssuedReceipt `json:"receipts"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		State:       h.checkout.State(),
		Receipt:     res.Receipt,
		ExportPath:  res.ExportPath,
		ExportError: res.ExportErr,
	})
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.State())
}

// DELETE /api/v1/checkout/pending
func (h *CheckoutHandler) CancelPending(w http.ResponseWriter, r *http.Request) {
	h.checkout.CancelPending()
	respondJSON(w, http.StatusOK, h.checkout.State())
}

// GET /api/v1/receipt
func (h *CheckoutHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	issued := h.current.Receipt()
	if issued == nil {
		respondError(w, http.StatusNotFound, "not_found", "no receipt has been issued yet")
		return
	}
	respondJSON(w, http.StatusOK, issued)
}

// GET /api/v1/receipt/pdf
func (h *CheckoutHandler) GetReceiptPDF(w http.ResponseWriter, r *http.Request) {
	issued := h.current.Receipt()
	if issued == nil {
		respondError(w, http.StatusNotFound, "not_found", "no receipt has been issued yet")
		return
	}
	h.writePDF(w, *issued)
}

// GET /api/v1/receipts?limit=N
func (h *CheckoutHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondJSON(w, http.StatusOK, ReceiptListDTO{Receipts: []domain.IssuedReceipt{}})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	receipts, err := h.history.ListReceipts(ctx, limit)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ReceiptListDTO{Receipts: receipts})
}

// GET /api/v1/receipts/{id}
func (h *CheckoutHandler) GetHistoricReceipt(w http.ResponseWriter, r *http.Request) {
	issued, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, issued)
}

// GET /api/v1/receipts/{id}/pdf
func (h *CheckoutHandler) GetHistoricReceiptPDF(w http.ResponseWriter, r *http.Request) {
	issued, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writePDF(w, *issued)
}

func (h *CheckoutHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.IssuedReceipt, bool) {
	if h.history == nil {
		respondError(w, http.StatusNotFound, "not_found", "receipt history is not enabled")
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	issued, err := h.history.GetReceipt(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return issued, true
}

// writePDF renders fully before writing so a failed render still gets a JSON error.
func (h *CheckoutHandler) writePDF(w http.ResponseWriter, issued domain.IssuedReceipt) {
	var buf bytes.Buffer
	if err := receipt.WritePDF(&buf, h.renderer.Build(issued), time.Now()); err != nil {
		respondErrorDetails(w, http.StatusInternalServerError, "export_failed", "could not render receipt", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.Filename(issued)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
