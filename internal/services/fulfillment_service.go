package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sushix/checkout-api/internal/notify"
	"github.com/sushix/checkout-api/internal/payments"
	"github.com/sushix/checkout-api/internal/store"
)

// ErrWebhookSignature indicates the webhook payload failed signature
// verification and must be rejected at the transport layer.
var ErrWebhookSignature = errors.New("fulfillment: invalid webhook signature")

// FulfillmentServiceDeps wires the dependencies required by the fulfillment service.
type FulfillmentServiceDeps struct {
	Orders   store.OrderStore
	Verifier payments.EventVerifier
	Notifier notify.Notifier
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type fulfillmentService struct {
	orders   store.OrderStore
	verifier payments.EventVerifier
	notifier notify.Notifier
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewFulfillmentService constructs a FulfillmentService validating required dependencies.
func NewFulfillmentService(deps FulfillmentServiceDeps) (FulfillmentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("fulfillment service: order store is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("fulfillment service: event verifier is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("fulfillment service: notifier is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &fulfillmentService{
		orders:   deps.Orders,
		verifier: deps.Verifier,
		notifier: deps.Notifier,
		logger:   logger,
	}, nil
}

// HandleEvent verifies and consumes one webhook delivery. Only a failed
// signature check returns an error; every authenticated delivery is
// acknowledged regardless of downstream outcome, so the PSP never
// redelivers an event we have already seen.
func (s *fulfillmentService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verifier.ConstructEvent(payload, signature)
	if err != nil {
		s.logger(ctx, "fulfillment.signature_rejected", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	if event.Type != payments.EventCheckoutCompleted {
		s.logger(ctx, "fulfillment.event_skipped", map[string]any{
			"eventId":   event.ID,
			"eventType": event.Type,
		})
		return nil
	}

	orderID := event.Metadata[payments.MetadataOrderIDKey]
	if orderID == "" {
		s.logger(ctx, "fulfillment.order_id_missing", map[string]any{
			"eventId": event.ID,
		})
		return nil
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		// Already consumed, expired, or store trouble: the event cannot be
		// acted on and a redelivery would fare no better.
		if errors.Is(err, store.ErrOrderNotFound) {
			s.logger(ctx, "fulfillment.order_unknown", map[string]any{
				"eventId": event.ID,
				"orderId": orderID,
			})
		} else {
			s.logger(ctx, "fulfillment.store_failed", map[string]any{
				"eventId": event.ID,
				"orderId": orderID,
				"error":   err.Error(),
			})
		}
		return nil
	}

	if err := s.notifier.Send(ctx, notify.RenderOrderMessage(order)); err != nil {
		// Keep the order so an operator can replay the notification; the
		// delivery itself is still acknowledged.
		s.logger(ctx, "fulfillment.notify_failed", map[string]any{
			"eventId": event.ID,
			"orderId": orderID,
			"error":   err.Error(),
		})
		return nil
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger(ctx, "fulfillment.delete_failed", map[string]any{
			"eventId": event.ID,
			"orderId": orderID,
			"error":   err.Error(),
		})
		return nil
	}

	s.logger(ctx, "fulfillment.completed", map[string]any{
		"eventId": event.ID,
		"orderId": orderID,
		"total":   order.Total(),
	})
	return nil
}
