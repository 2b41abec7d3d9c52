package payments

import (
	"context"
)

// MetadataOrderIDKey names the single metadata entry attached to a
// checkout session. Only the order identifier crosses the wire; the full
// order stays server-side because the PSP caps total metadata size.
const MetadataOrderIDKey = "order_id"

// EventCheckoutCompleted is the event type that signifies a paid
// checkout and triggers fulfillment.
const EventCheckoutCompleted = "checkout.session.completed"

// CouponRequest describes a single-use discount to create on the PSP.
// Exactly one of PercentOff or AmountOff is set.
type CouponRequest struct {
	PercentOff *float64
	AmountOff  *int64
	Currency   string
}

// Coupon is the PSP-side discount referenced by a checkout session.
type Coupon struct {
	ID string
}

// LineItem is one priced entry of a checkout session. Amount is in minor
// currency units.
type LineItem struct {
	Name     string
	Quantity int64
	Amount   int64
	Currency string
}

// SessionRequest captures the payload required to create a hosted
// checkout session.
type SessionRequest struct {
	Items      []LineItem
	CouponID   string
	Locale     string
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the PSP session handle returned to the storefront.
type Session struct {
	ID          string
	RedirectURL string
}

// Event is a verified webhook notification. Metadata is only populated
// for checkout-completed events.
type Event struct {
	ID       string
	Type     string
	Metadata map[string]string
}

// Provider defines the PSP operations consumed by checkout.
type Provider interface {
	CreateCoupon(ctx context.Context, req CouponRequest) (Coupon, error)
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

// EventVerifier authenticates raw webhook payloads. Verification covers
// the exact byte sequence, so callers must not reinterpret the body
// before passing it in.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (Event, error)
}
