package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/sushix/checkout-api/internal/platform/httpx"
	"github.com/sushix/checkout-api/internal/services"
)

const (
	// Signed event payloads comfortably fit; anything larger is not a
	// legitimate PSP delivery.
	maxWebhookBody = 256 * 1024

	signatureHeader = "Stripe-Signature"
)

// WebhookHandlers receives signed PSP event deliveries.
type WebhookHandlers struct {
	fulfillment services.FulfillmentService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(fulfillment services.FulfillmentService) *WebhookHandlers {
	return &WebhookHandlers{fulfillment: fulfillment}
}

// Receive handles POST /webhook. The raw body bytes are passed through
// untouched: signature verification covers the exact payload.
func (h *WebhookHandlers) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h == nil || h.fulfillment == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhook_unavailable", "webhook processing unavailable", http.StatusServiceUnavailable))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation", "failed to read request body", http.StatusBadRequest))
		return
	}
	if int64(len(payload)) > maxWebhookBody {
		httpx.WriteError(ctx, w, httpx.NewError("validation", "request body exceeds the allowed size", http.StatusRequestEntityTooLarge))
		return
	}

	if err := h.fulfillment.HandleEvent(ctx, payload, r.Header.Get(signatureHeader)); err != nil {
		if errors.Is(err, services.ErrWebhookSignature) {
			httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "webhook signature verification failed", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "failed to process webhook", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
