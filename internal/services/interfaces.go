// Package services implements the checkout and fulfillment flows on top
// of the store, payments, and notify layers.
package services

import (
	"context"

	"github.com/sushix/checkout-api/internal/domain"
)

// CreateCheckoutSessionCommand carries a validated checkout request from
// the transport layer.
type CreateCheckoutSessionCommand struct {
	Cart        []domain.CartItem
	Customer    *domain.Customer
	Delivery    domain.Delivery
	DeliveryFee float64
	Promo       *domain.Promo
	Language    string
}

// CheckoutSession is the handle returned to the storefront after a
// hosted session was created.
type CheckoutSession struct {
	OrderID     string
	SessionID   string
	RedirectURL string
}

// CheckoutService turns a cart into a cached pending order plus a PSP
// hosted checkout session.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSession, error)
}

// FulfillmentService consumes verified payment webhooks: it correlates
// the event to a pending order, notifies staff, and retires the order.
type FulfillmentService interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}
