package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sushix/checkout-api/internal/platform/httpx"
)

const defaultTimeout = 60 * time.Second

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	checkout    *CheckoutHandlers
	webhook     *WebhookHandlers
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

// NewRouter constructs the chi router with shared middleware and the
// relay's route surface.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/ping", ping)
	r.Get("/healthz", health)

	if cfg.checkout != nil {
		r.Post("/create-checkout-session", cfg.checkout.CreateSession)
	}
	if cfg.webhook != nil {
		r.Post("/webhook", cfg.webhook.Receive)
	}

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithCheckoutHandlers mounts the checkout session endpoint.
func WithCheckoutHandlers(h *CheckoutHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.checkout = h
	}
}

// WithWebhookHandlers mounts the PSP webhook endpoint.
func WithWebhookHandlers(h *WebhookHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.webhook = h
	}
}
