package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sushix/checkout-api/internal/domain"
	"github.com/sushix/checkout-api/internal/id"
	"github.com/sushix/checkout-api/internal/payments"
	"github.com/sushix/checkout-api/internal/store"
)

type stubOrderStore struct {
	orders  map[string]domain.PendingOrder
	putErr  error
	getErr  error
	puts    int
	deletes []string
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{orders: map[string]domain.PendingOrder{}}
}

func (s *stubOrderStore) Put(_ context.Context, order domain.PendingOrder) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderStore) Get(_ context.Context, orderID string) (domain.PendingOrder, error) {
	if s.getErr != nil {
		return domain.PendingOrder{}, s.getErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return domain.PendingOrder{}, store.ErrOrderNotFound
	}
	return order, nil
}

func (s *stubOrderStore) Delete(_ context.Context, orderID string) error {
	s.deletes = append(s.deletes, orderID)
	delete(s.orders, orderID)
	return nil
}

type stubProvider struct {
	couponReqs  []payments.CouponRequest
	sessionReqs []payments.SessionRequest
	coupon      payments.Coupon
	session     payments.Session
	couponErr   error
	sessionErr  error
}

func (p *stubProvider) CreateCoupon(_ context.Context, req payments.CouponRequest) (payments.Coupon, error) {
	p.couponReqs = append(p.couponReqs, req)
	if p.couponErr != nil {
		return payments.Coupon{}, p.couponErr
	}
	return p.coupon, nil
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, req payments.SessionRequest) (payments.Session, error) {
	p.sessionReqs = append(p.sessionReqs, req)
	if p.sessionErr != nil {
		return payments.Session{}, p.sessionErr
	}
	return p.session, nil
}

func newCheckoutFixture(t *testing.T, orders *stubOrderStore, provider *stubProvider) CheckoutService {
	t.Helper()
	if provider.session.ID == "" {
		provider.session = payments.Session{ID: "cs_test_1", RedirectURL: "https://pay.example/cs_test_1"}
	}
	svc, err := NewCheckoutService(CheckoutServiceDeps{
		Orders:     orders,
		Payments:   provider,
		IDs:        id.GeneratorFunc(func() string { return "order-1" }),
		SuccessURL: "https://shop.example/success.html",
		CancelURL:  "https://shop.example/cart.html",
		Currency:   "eur",
		Clock:      func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return svc
}

func checkoutCommand() CreateCheckoutSessionCommand {
	return CreateCheckoutSessionCommand{
		Cart: []domain.CartItem{
			{Name: "Roll A", UnitPrice: 5.50, Qty: 2},
		},
		Customer:    &domain.Customer{Name: "Anna", Phone: "+372 5555 5555"},
		Delivery:    domain.Delivery{Method: "courier", Date: "2025-03-02", Time: "18:00"},
		DeliveryFee: 2.00,
		Language:    "en",
	}
}

func TestCreateCheckoutSessionBuildsLineItems(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{}
	svc := newCheckoutFixture(t, orders, provider)

	result, err := svc.CreateCheckoutSession(context.Background(), checkoutCommand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrderID != "order-1" {
		t.Fatalf("unexpected order id %q", result.OrderID)
	}
	if result.RedirectURL != "https://pay.example/cs_test_1" {
		t.Fatalf("unexpected redirect url %q", result.RedirectURL)
	}

	if len(provider.sessionReqs) != 1 {
		t.Fatalf("expected one session request, got %d", len(provider.sessionReqs))
	}
	req := provider.sessionReqs[0]
	if len(req.Items) != 2 {
		t.Fatalf("expected two line items, got %d", len(req.Items))
	}
	if req.Items[0].Amount != 550 || req.Items[0].Quantity != 2 || req.Items[0].Name != "Roll A" {
		t.Fatalf("unexpected cart line item %+v", req.Items[0])
	}
	if req.Items[1].Amount != 200 || req.Items[1].Quantity != 1 || req.Items[1].Name != "Delivery" {
		t.Fatalf("unexpected delivery line item %+v", req.Items[1])
	}
	if req.Metadata[payments.MetadataOrderIDKey] != "order-1" {
		t.Fatalf("expected order id metadata, got %v", req.Metadata)
	}
	if req.CouponID != "" {
		t.Fatalf("expected no coupon without promo, got %q", req.CouponID)
	}
	if req.Locale != "en" {
		t.Fatalf("unexpected locale %q", req.Locale)
	}
	if !strings.Contains(req.SuccessURL, "{CHECKOUT_SESSION_ID}") {
		t.Fatalf("success url must carry the session placeholder, got %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.example/cart.html?lang=en" {
		t.Fatalf("unexpected cancel url %q", req.CancelURL)
	}

	stored, err := orders.Get(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("order was not cached: %v", err)
	}
	if stored.Total() != 1300 {
		t.Fatalf("unexpected stored total %d", stored.Total())
	}
}

func TestCreateCheckoutSessionRejectsEmptyCart(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Cart = []domain.CartItem{
		{Name: "Freebie", UnitPrice: 0, Qty: 1},
		{Name: "Ghost", UnitPrice: 5, Qty: 0},
	}
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); !errors.Is(err, ErrCheckoutCartEmpty) {
		t.Fatalf("expected ErrCheckoutCartEmpty, got %v", err)
	}
	if orders.puts != 0 {
		t.Fatalf("no order may be cached for an empty cart")
	}
	if len(provider.sessionReqs) != 0 {
		t.Fatalf("no session may be created for an empty cart")
	}
}

func TestCreateCheckoutSessionRequiresOrderData(t *testing.T) {
	orders := newStubOrderStore()
	svc := newCheckoutFixture(t, orders, &stubProvider{})

	cmd := checkoutCommand()
	cmd.Customer = nil
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); !errors.Is(err, ErrCheckoutOrderDataMissing) {
		t.Fatalf("expected ErrCheckoutOrderDataMissing, got %v", err)
	}
	if orders.puts != 0 {
		t.Fatalf("no order may be cached without customer data")
	}
}

func TestCreateCheckoutSessionRejectsNegativeDeliveryFee(t *testing.T) {
	svc := newCheckoutFixture(t, newStubOrderStore(), &stubProvider{})

	cmd := checkoutCommand()
	cmd.DeliveryFee = -1
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); !errors.Is(err, ErrCheckoutInvalidInput) {
		t.Fatalf("expected ErrCheckoutInvalidInput, got %v", err)
	}
}

func TestCreateCheckoutSessionPercentagePromo(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{coupon: payments.Coupon{ID: "coupon-1"}}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Promo = &domain.Promo{Type: domain.PromoPercentage, Value: 10}
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.couponReqs) != 1 {
		t.Fatalf("expected one coupon request, got %d", len(provider.couponReqs))
	}
	req := provider.couponReqs[0]
	if req.PercentOff == nil || *req.PercentOff != 10 {
		t.Fatalf("expected 10 percent off, got %+v", req)
	}
	if req.AmountOff != nil {
		t.Fatalf("percentage coupon must not set amount off")
	}
	if provider.sessionReqs[0].CouponID != "coupon-1" {
		t.Fatalf("session must reference the created coupon")
	}

	stored, _ := orders.Get(context.Background(), "order-1")
	if stored.Discount != 1.10 {
		t.Fatalf("expected 10%% of 11.00 as discount, got %v", stored.Discount)
	}
}

func TestCreateCheckoutSessionFixedPromo(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{coupon: payments.Coupon{ID: "coupon-1"}}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Promo = &domain.Promo{Type: domain.PromoFixed, Value: 1.50}
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := provider.couponReqs[0]
	if req.AmountOff == nil || *req.AmountOff != 150 {
		t.Fatalf("expected 150 minor units off, got %+v", req)
	}
	if req.Currency != "eur" {
		t.Fatalf("fixed coupon must carry the currency, got %q", req.Currency)
	}
}

func TestCreateCheckoutSessionIgnoresIllFormedPromo(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Promo = &domain.Promo{Type: domain.PromoPercentage, Value: 150}
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.couponReqs) != 0 {
		t.Fatalf("ill-formed promo must not create a coupon")
	}
	stored, _ := orders.Get(context.Background(), "order-1")
	if stored.Discount != 0 {
		t.Fatalf("ill-formed promo must not discount the order, got %v", stored.Discount)
	}
}

func TestCreateCheckoutSessionRemovesOrderOnSessionFailure(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{sessionErr: errors.New("psp down")}
	svc := newCheckoutFixture(t, orders, provider)

	if _, err := svc.CreateCheckoutSession(context.Background(), checkoutCommand()); !errors.Is(err, ErrCheckoutPaymentFailed) {
		t.Fatalf("expected ErrCheckoutPaymentFailed, got %v", err)
	}
	if _, err := orders.Get(context.Background(), "order-1"); !errors.Is(err, store.ErrOrderNotFound) {
		t.Fatalf("order must be discarded after session failure")
	}
}

func TestCreateCheckoutSessionRemovesOrderOnCouponFailure(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{couponErr: errors.New("psp down")}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Promo = &domain.Promo{Type: domain.PromoFixed, Value: 1}
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); !errors.Is(err, ErrCheckoutPaymentFailed) {
		t.Fatalf("expected ErrCheckoutPaymentFailed, got %v", err)
	}
	if len(provider.sessionReqs) != 0 {
		t.Fatalf("no session may be created after coupon failure")
	}
	if _, err := orders.Get(context.Background(), "order-1"); !errors.Is(err, store.ErrOrderNotFound) {
		t.Fatalf("order must be discarded after coupon failure")
	}
}

func TestCreateCheckoutSessionStoreFailure(t *testing.T) {
	orders := newStubOrderStore()
	orders.putErr = errors.New("store down")
	provider := &stubProvider{}
	svc := newCheckoutFixture(t, orders, provider)

	if _, err := svc.CreateCheckoutSession(context.Background(), checkoutCommand()); !errors.Is(err, ErrCheckoutUnavailable) {
		t.Fatalf("expected ErrCheckoutUnavailable, got %v", err)
	}
	if len(provider.sessionReqs) != 0 {
		t.Fatalf("no session may be created when the order cannot be cached")
	}
}

func TestCreateCheckoutSessionUnknownLanguage(t *testing.T) {
	orders := newStubOrderStore()
	provider := &stubProvider{}
	svc := newCheckoutFixture(t, orders, provider)

	cmd := checkoutCommand()
	cmd.Language = "de"
	if _, err := svc.CreateCheckoutSession(context.Background(), cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := provider.sessionReqs[0]
	if req.Locale != "" {
		t.Fatalf("unknown language must fall back to automatic locale, got %q", req.Locale)
	}
	if req.CancelURL != "https://shop.example/cart.html" {
		t.Fatalf("unknown language must not tag the cancel url, got %q", req.CancelURL)
	}
}
