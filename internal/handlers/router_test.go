package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouterPing(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Body.String() != "Alive!" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRouterHealthz(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health payload must be JSON: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("unexpected payload %v", resp)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error payload must be JSON: %v", err)
	}
	if resp["error"] != "route_not_found" {
		t.Fatalf("unexpected error code %v", resp["error"])
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRouterMountsCheckoutAndWebhook(t *testing.T) {
	checkout := &stubCheckoutService{}
	fulfillment := &stubFulfillmentService{}
	router := NewRouter(
		WithCheckoutHandlers(NewCheckoutHandlers(checkout)),
		WithWebhookHandlers(NewWebhookHandlers(fulfillment)),
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook route must be mounted, got %d", rec.Code)
	}
	if len(fulfillment.payloads) != 1 {
		t.Fatalf("webhook handler was not invoked")
	}
}
