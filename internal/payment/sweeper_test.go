package payment

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"
)

func TestSweepOnceDeletesOnlyExpiredFailures(t *testing.T) {
	store := newMemStore()

	expired := pendingOrder(models.PaymentMethodWallet)
	expired.Status = models.OrderStatusFailed
	past := time.Now().Add(-time.Minute)
	expired.ExpiryDate = &past
	expiredID := store.put(expired)

	fresh := pendingOrder(models.PaymentMethodWallet)
	fresh.Status = models.OrderStatusFailed
	future := time.Now().Add(time.Hour)
	fresh.ExpiryDate = &future
	freshID := store.put(fresh)

	pending := pendingOrder(models.PaymentMethodBankTransfer)
	pendingID := store.put(pending)

	sweeper := NewSweeper(store, time.Hour)
	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deletion, got %d", n)
	}

	if _, err := store.Find(context.Background(), expiredID); err != ErrOrderNotFound {
		t.Fatal("expired failed order should be deleted")
	}
	if _, err := store.Find(context.Background(), freshID); err != nil {
		t.Fatal("failed order with future expiry must survive the sweep")
	}
	if _, err := store.Find(context.Background(), pendingID); err != nil {
		t.Fatal("pending order must survive the sweep")
	}
}

func TestScheduleDeletionFiresAfterExpiry(t *testing.T) {
	store := newMemStore()

	order := pendingOrder(models.PaymentMethodWallet)
	order.Status = models.OrderStatusFailed
	past := time.Now().Add(-time.Second)
	order.ExpiryDate = &past
	id := store.put(order)

	sweeper := NewSweeper(store, time.Hour)
	timer := sweeper.ScheduleDeletion(id, past)
	defer timer.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Find(context.Background(), id); err == ErrOrderNotFound {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("scheduled deletion did not remove the order in time")
}

func TestScheduleDeletionLeavesSettledOrdersAlone(t *testing.T) {
	store := newMemStore()

	order := pendingOrder(models.PaymentMethodWallet)
	paidAt := time.Now()
	order.Status = models.OrderStatusPaid
	order.PaymentDetails = &models.PaymentDetails{Method: models.PaymentMethodWallet, PaidAt: &paidAt}
	id := store.put(order)

	sweeper := NewSweeper(store, time.Hour)
	timer := sweeper.ScheduleDeletion(id, time.Now().Add(-time.Second))
	defer timer.Stop()

	time.Sleep(200 * time.Millisecond)
	if _, err := store.Find(context.Background(), id); err != nil {
		t.Fatal("a paid order must never be deleted by the sweeper")
	}
}
