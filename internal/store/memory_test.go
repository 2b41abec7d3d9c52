package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sushix/checkout-api/internal/domain"
)

func testOrder(id string) domain.PendingOrder {
	return domain.PendingOrder{
		ID:       id,
		Customer: domain.Customer{Name: "Anna", Phone: "+372000000"},
		Cart: []domain.CartItem{
			{Name: "Roll A", UnitPrice: 5.50, Qty: 2},
		},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Put(ctx, testOrder("ord-1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Customer.Name != "Anna" {
		t.Fatalf("unexpected order returned: %#v", got)
	}

	if err := s.Delete(ctx, "ord-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "ord-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreGetUnknownOrder(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteIsNoOpWhenAbsent(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("delete of absent key should not fail, got %v", err)
	}
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := testOrder("ord-1")
	second := testOrder("ord-1")
	second.Customer.Name = "Boris"

	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Customer.Name != "Boris" {
		t.Fatalf("expected overwrite, got %#v", got.Customer)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStore(WithTTL(time.Hour), WithClock(clock))

	if err := s.Put(ctx, testOrder("ord-1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if _, err := s.Get(ctx, "ord-1"); err != nil {
		t.Fatalf("order should still be live: %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := s.Get(ctx, "ord-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected expired order to be absent, got %v", err)
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStore(WithTTL(time.Hour), WithClock(clock))

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, testOrder(id)); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	now = now.Add(30 * time.Minute)
	if err := s.Put(ctx, testOrder("fresh")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	now = now.Add(45 * time.Minute)
	removed, err := s.CleanupExpired(ctx, now, 0)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 expired entries removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", s.Len())
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Fatalf("fresh entry should survive cleanup: %v", err)
	}
}

func TestMemoryStoreCleanupRespectsLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewMemoryStore(WithTTL(time.Minute), WithClock(clock))

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, testOrder(id)); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	removed, err := s.CleanupExpired(ctx, now.Add(time.Hour), 2)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected limit of 2 removals, got %d", removed)
	}
}
