package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Catalog        *CatalogHandler
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Session        *SessionHandler
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", cfg.Catalog.List)
			r.Post("/refresh", cfg.Catalog.Refresh)
			r.Get("/{id}", cfg.Catalog.Get)
		})
		r.Route("/filters", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetFilters)
			r.Patch("/", cfg.Cart.PatchFilters)
			r.Delete("/", cfg.Cart.ResetFilters)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{id}", cfg.Cart.RemoveItem)
		})
		r.Put("/balance/local", cfg.Cart.SetLocalBalance)
		r.Post("/panels/cart/toggle", cfg.Cart.ToggleCartPanel)
		r.Post("/panels/receipt/toggle", cfg.Cart.ToggleReceiptPanel)

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", cfg.Checkout.GetState)
			r.Post("/", cfg.Checkout.InitiateCheckout)
			r.Delete("/pending", cfg.Checkout.CancelPending)
		})
		r.Get("/receipt", cfg.Checkout.GetReceipt)
		r.Get("/receipt/pdf", cfg.Checkout.GetReceiptPDF)
		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", cfg.Checkout.ListReceipts)
			r.Get("/{id}", cfg.Checkout.GetHistoricReceipt)
			r.Get("/{id}/pdf", cfg.Checkout.GetHistoricReceiptPDF)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", cfg.Session.GetSession)
			r.Post("/login", cfg.Session.Login)
			r.Post("/logout", cfg.Session.Logout)
			r.Post("/refresh", cfg.Session.Refresh)
		})
	})

	return otelhttp.NewHandler(r, "fitstore")
}
