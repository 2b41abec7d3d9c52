package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/sushix/checkout-api/internal/domain"
	"github.com/sushix/checkout-api/internal/id"
	"github.com/sushix/checkout-api/internal/payments"
	"github.com/sushix/checkout-api/internal/store"
)

const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// deliveryLineNames localises the synthetic delivery line item shown on
// the hosted checkout page.
var deliveryLineNames = map[domain.Language]string{
	domain.LanguageRussian:  "Доставка",
	domain.LanguageEstonian: "Tarne",
	domain.LanguageEnglish:  "Delivery",
}

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutCartEmpty indicates the cart holds no sellable items.
	ErrCheckoutCartEmpty = errors.New("checkout: cart is empty")
	// ErrCheckoutOrderDataMissing indicates the request lacks customer contact details.
	ErrCheckoutOrderDataMissing = errors.New("checkout: order data is required")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutPaymentFailed indicates the PSP coupon or session could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Orders     store.OrderStore
	Payments   payments.Provider
	IDs        id.Generator
	SuccessURL string
	CancelURL  string
	Currency   string
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	orders     store.OrderStore
	payments   payments.Provider
	ids        id.Generator
	successURL string
	cancelURL  string
	currency   string
	now        func() time.Time
	logger     func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order store is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}
	if deps.IDs == nil {
		return nil, errors.New("checkout service: id generator is required")
	}
	successURL := strings.TrimSpace(deps.SuccessURL)
	cancelURL := strings.TrimSpace(deps.CancelURL)
	if successURL == "" || cancelURL == "" {
		return nil, errors.New("checkout service: success and cancel urls are required")
	}
	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "eur"
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		orders:     deps.Orders,
		payments:   deps.Payments,
		ids:        deps.IDs,
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   currency,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateCheckoutSession validates the cart, caches a pending order, and
// creates a hosted PSP session referencing it by identifier only.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, cmd CreateCheckoutSessionCommand) (CheckoutSession, error) {
	if s == nil || s.orders == nil || s.payments == nil {
		return CheckoutSession{}, ErrCheckoutUnavailable
	}

	if cmd.Customer == nil || strings.TrimSpace(cmd.Customer.Name) == "" {
		return CheckoutSession{}, ErrCheckoutOrderDataMissing
	}
	if cmd.DeliveryFee < 0 {
		return CheckoutSession{}, ErrCheckoutInvalidInput
	}

	cart := sellableItems(cmd.Cart)
	if len(cart) == 0 {
		return CheckoutSession{}, ErrCheckoutCartEmpty
	}

	lang, _ := domain.ParseLanguage(cmd.Language)

	order := domain.PendingOrder{
		ID:          s.ids.NewOrderID(),
		Customer:    *cmd.Customer,
		Delivery:    cmd.Delivery,
		Cart:        cart,
		DeliveryFee: cmd.DeliveryFee,
		Language:    lang,
		CreatedAt:   s.now(),
	}

	discountMinor := promoDiscountMinor(cmd.Promo, order.Subtotal())
	order.Discount = float64(discountMinor) / 100

	// The order must be resolvable before the PSP can possibly deliver a
	// completed-payment event for it.
	if err := s.orders.Put(ctx, order); err != nil {
		s.logger(ctx, "checkout.store_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return CheckoutSession{}, ErrCheckoutUnavailable
	}

	couponID, err := s.createCoupon(ctx, cmd.Promo, discountMinor)
	if err != nil {
		s.discardOrder(ctx, order.ID, "coupon_failed")
		return CheckoutSession{}, err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.SessionRequest{
		Items:      s.buildLineItems(cart, cmd.DeliveryFee, lang),
		CouponID:   couponID,
		Locale:     string(lang),
		Currency:   s.currency,
		SuccessURL: s.buildSuccessURL(),
		CancelURL:  s.buildCancelURL(lang),
		Metadata:   map[string]string{payments.MetadataOrderIDKey: order.ID},
	})
	if err != nil {
		s.logger(ctx, "checkout.session_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		s.discardOrder(ctx, order.ID, "session_failed")
		return CheckoutSession{}, ErrCheckoutPaymentFailed
	}

	s.logger(ctx, "checkout.session_created", map[string]any{
		"orderId":   order.ID,
		"sessionId": session.ID,
		"total":     order.Total(),
		"items":     len(cart),
	})

	return CheckoutSession{
		OrderID:     order.ID,
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}

// createCoupon turns an applicable promo into a single-use PSP coupon.
// A missing or ineffective promo yields an empty coupon id, not an error.
func (s *checkoutService) createCoupon(ctx context.Context, promo *domain.Promo, discountMinor int64) (string, error) {
	if promo == nil || discountMinor <= 0 {
		return "", nil
	}

	var req payments.CouponRequest
	switch promo.Type {
	case domain.PromoPercentage:
		percent := promo.Value
		req.PercentOff = &percent
	case domain.PromoFixed:
		amount := discountMinor
		req.AmountOff = &amount
		req.Currency = s.currency
	default:
		return "", nil
	}

	coupon, err := s.payments.CreateCoupon(ctx, req)
	if err != nil {
		s.logger(ctx, "checkout.coupon_failed", map[string]any{
			"promoType": string(promo.Type),
			"error":     err.Error(),
		})
		return "", ErrCheckoutPaymentFailed
	}
	return coupon.ID, nil
}

func (s *checkoutService) buildLineItems(cart []domain.CartItem, deliveryFee float64, lang domain.Language) []payments.LineItem {
	items := make([]payments.LineItem, 0, len(cart)+1)
	for _, item := range cart {
		items = append(items, payments.LineItem{
			Name:     item.Name,
			Quantity: item.Qty,
			Amount:   domain.MinorUnits(item.UnitPrice),
			Currency: s.currency,
		})
	}
	if deliveryFee > 0 {
		name, ok := deliveryLineNames[lang]
		if !ok {
			name = deliveryLineNames[domain.LanguageEnglish]
		}
		items = append(items, payments.LineItem{
			Name:     name,
			Quantity: 1,
			Amount:   domain.MinorUnits(deliveryFee),
			Currency: s.currency,
		})
	}
	return items
}

func (s *checkoutService) buildSuccessURL() string {
	if strings.Contains(s.successURL, sessionIDPlaceholder) {
		return s.successURL
	}
	return s.successURL + querySeparator(s.successURL) + "session_id=" + sessionIDPlaceholder
}

func (s *checkoutService) buildCancelURL(lang domain.Language) string {
	if lang == "" {
		return s.cancelURL
	}
	return s.cancelURL + querySeparator(s.cancelURL) + "lang=" + string(lang)
}

// discardOrder removes a pending order whose session never materialised,
// so the store does not accumulate unreachable entries until the sweep.
func (s *checkoutService) discardOrder(ctx context.Context, orderID string, reason string) {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger(ctx, "checkout.discard_failed", map[string]any{
			"orderId": orderID,
			"reason":  reason,
			"error":   err.Error(),
		})
	}
}

func sellableItems(items []domain.CartItem) []domain.CartItem {
	kept := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.Sellable() {
			kept = append(kept, item)
		}
	}
	return kept
}

// promoDiscountMinor computes the money effect of a promo against the
// subtotal, in minor units. Ill-formed promos count as absent.
func promoDiscountMinor(promo *domain.Promo, subtotalMinor int64) int64 {
	if promo == nil || !promo.Valid() {
		return 0
	}
	switch promo.Type {
	case domain.PromoPercentage:
		return int64(math.Round(float64(subtotalMinor) * promo.Value / 100))
	case domain.PromoFixed:
		return domain.MinorUnits(promo.Value)
	default:
		return 0
	}
}

func querySeparator(url string) string {
	if strings.Contains(url, "?") {
		return "&"
	}
	return "?"
}
