package store

import (
	"context"
	"errors"

	"github.com/sushix/checkout-api/internal/domain"
)

// ErrOrderNotFound is returned by Get when no pending order exists under
// the requested identifier.
var ErrOrderNotFound = errors.New("store: order not found")

// OrderStore caches pending orders between checkout session creation and
// webhook fulfillment. Put overwrites unconditionally, Delete is a no-op
// for absent keys.
type OrderStore interface {
	Put(ctx context.Context, order domain.PendingOrder) error
	Get(ctx context.Context, orderID string) (domain.PendingOrder, error)
	Delete(ctx context.Context, orderID string) error
}
