package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeLogger defines the logging contract for Stripe provider operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

// ErrInvalidSignature is returned when a webhook payload fails
// signature verification.
var ErrInvalidSignature = errors.New("stripe: invalid webhook signature")

type stripeCouponAPI interface {
	New(params *stripe.CouponParams) (*stripe.Coupon, error)
}

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeClients struct {
	coupons  stripeCouponAPI
	sessions stripeSessionAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey        string
	WebhookSecret string
	Backends      *stripe.Backends
	Logger        StripeLogger
	Clients       *stripeClients
}

// StripeProvider implements Provider and EventVerifier using Stripe APIs.
type StripeProvider struct {
	api           stripeClients
	webhookSecret string
	logger        StripeLogger
}

// NewStripeProvider constructs a Stripe provider using the given configuration.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			coupons:  sc.Coupons,
			sessions: sc.CheckoutSessions,
		}
	}

	if clients.coupons == nil || clients.sessions == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{
		api:           clients,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		logger:        logger,
	}, nil
}

// CreateCoupon creates a single-use (`duration: once`) Stripe coupon.
func (p *StripeProvider) CreateCoupon(ctx context.Context, req CouponRequest) (Coupon, error) {
	if p == nil {
		return Coupon{}, errors.New("stripe: provider is nil")
	}
	if req.PercentOff == nil && req.AmountOff == nil {
		return Coupon{}, errors.New("stripe: coupon requires percent_off or amount_off")
	}

	params := &stripe.CouponParams{
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx
	if req.PercentOff != nil {
		params.PercentOff = stripe.Float64(*req.PercentOff)
	}
	if req.AmountOff != nil {
		params.AmountOff = stripe.Int64(*req.AmountOff)
		params.Currency = stripe.String(strings.ToLower(req.Currency))
	}

	coupon, err := p.api.coupons.New(params)
	if err != nil {
		return Coupon{}, fmt.Errorf("stripe: create coupon: %w", err)
	}

	p.logger(ctx, "payments.stripe.coupon.created", map[string]any{
		"couponId": coupon.ID,
	})

	return Coupon{ID: coupon.ID}, nil
}

// CreateCheckoutSession creates a hosted Stripe Checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	if p == nil {
		return Session{}, errors.New("stripe: provider is nil")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx

	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = "auto"
	}
	params.Locale = stripe.String(locale)

	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(defaultString(item.Currency, req.Currency))),
				UnitAmount: stripe.Int64(item.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	params.LineItems = lineItems

	session, err := p.api.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	p.logger(ctx, "payments.stripe.session.created", map[string]any{
		"sessionId": session.ID,
		"currency":  session.Currency,
	})

	return Session{
		ID:          session.ID,
		RedirectURL: session.URL,
	}, nil
}

// ConstructEvent verifies the signature over the raw payload bytes and
// returns the structured event.
func (p *StripeProvider) ConstructEvent(payload []byte, signature string) (Event, error) {
	if p == nil || p.webhookSecret == "" {
		return Event{}, errors.New("stripe: webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if out.Type == EventCheckoutCompleted && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		out.Metadata = session.Metadata
	}

	return out, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
