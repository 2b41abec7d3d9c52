package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sushix/checkout-api/internal/domain"
	"github.com/sushix/checkout-api/internal/platform/httpx"
	"github.com/sushix/checkout-api/internal/services"
)

const maxCheckoutRequestBody = 64 * 1024

// CheckoutHandlers exposes the checkout session endpoint consumed by the
// storefront.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

type cartItemPayload struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Qty       int64   `json:"qty"`
}

type promoPayload struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type deliverySlotPayload struct {
	Method string `json:"method"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

type orderDataPayload struct {
	Name     string              `json:"name"`
	Phone    string              `json:"phone"`
	Email    string              `json:"email"`
	Address  string              `json:"address"`
	Comment  string              `json:"comment"`
	Delivery deliverySlotPayload `json:"delivery"`
}

type createCheckoutRequest struct {
	Cart      []cartItemPayload `json:"cart"`
	Delivery  float64           `json:"delivery"`
	Promo     *promoPayload     `json:"promo"`
	Lang      string            `json:"lang"`
	OrderData *orderDataPayload `json:"orderData"`
}

type createCheckoutResponse struct {
	URL string `json:"url"`
}

// CreateSession handles POST /create-checkout-session.
func (h *CheckoutHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h == nil || h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("validation", err.Error(), status))
		return
	}

	var req createCheckoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	session, err := h.checkout.CreateCheckoutSession(ctx, buildCheckoutCommand(req))
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, createCheckoutResponse{URL: session.RedirectURL})
}

func buildCheckoutCommand(req createCheckoutRequest) services.CreateCheckoutSessionCommand {
	cmd := services.CreateCheckoutSessionCommand{
		Cart:        make([]domain.CartItem, 0, len(req.Cart)),
		DeliveryFee: req.Delivery,
		Language:    strings.TrimSpace(req.Lang),
	}
	for _, item := range req.Cart {
		cmd.Cart = append(cmd.Cart, domain.CartItem{
			Name:      strings.TrimSpace(item.Name),
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
		})
	}
	if req.OrderData != nil {
		cmd.Customer = &domain.Customer{
			Name:    strings.TrimSpace(req.OrderData.Name),
			Phone:   strings.TrimSpace(req.OrderData.Phone),
			Email:   strings.TrimSpace(req.OrderData.Email),
			Address: strings.TrimSpace(req.OrderData.Address),
			Comment: strings.TrimSpace(req.OrderData.Comment),
		}
		cmd.Delivery = domain.Delivery{
			Method: strings.TrimSpace(req.OrderData.Delivery.Method),
			Date:   strings.TrimSpace(req.OrderData.Delivery.Date),
			Time:   strings.TrimSpace(req.OrderData.Delivery.Time),
		}
	}
	if req.Promo != nil {
		if promoType, ok := domain.ParsePromoType(req.Promo.Type); ok {
			cmd.Promo = &domain.Promo{Type: promoType, Value: req.Promo.Value}
		}
	}
	return cmd
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutOrderDataMissing):
		httpx.WriteError(ctx, w, httpx.NewError("validation", "orderData is required", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutCartEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("validation", "cart must contain at least one sellable item", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("validation", "invalid checkout request", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "payment processor error", http.StatusBadGateway))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "failed to process checkout request", http.StatusInternalServerError))
	}
}
