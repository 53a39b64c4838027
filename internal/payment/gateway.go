package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Outcome classifies the result of a transition attempt.
type Outcome int

const (
	// OutcomeApplied means this call performed the transition.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyApplied means the order was already in the requested
	// state. The call is a benign no-op and callers should acknowledge it.
	OutcomeAlreadyApplied
	// OutcomeConflict means the order is in a state that does not permit the
	// requested transition. The order is unchanged.
	OutcomeConflict
)

// Result is the outcome of Gateway.Apply plus the order as it stands after
// the attempt.
type Result struct {
	Outcome Outcome
	Order   *models.Order
}

// Gateway is the single choke point for order status mutations. Every entry
// point that settles an order (gateway callback, client verify, cancel) goes
// through Apply, so the state-machine guards live in exactly one place.
//
// Apply expresses each transition as a conditional update keyed on the order
// still being pending. Two concurrent attempts therefore race on the database
// write, not on application state: the loser sees zero matched documents and
// is reported as AlreadyApplied or Conflict instead of overwriting anything.
type Gateway struct {
	store     OrderStore
	retention time.Duration
	onFailed  func(id primitive.ObjectID, expiry time.Time)
}

// NewGateway builds a gateway. retention is how long a failed order is kept
// before it becomes eligible for deletion.
func NewGateway(store OrderStore, retention time.Duration) *Gateway {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Gateway{store: store, retention: retention}
}

// OnFailed registers a hook invoked once per applied failed transition,
// typically the sweeper's one-shot deletion timer.
func (g *Gateway) OnFailed(hook func(id primitive.ObjectID, expiry time.Time)) {
	g.onFailed = hook
}

// Apply attempts the requested transition on the order. Requested must be one
// of paid, failed or cancelled. A missing order surfaces as ErrOrderNotFound.
// Side effects (paidAt/failedAt stamps, expiry scheduling, the failed hook)
// run exactly once, on the call that actually performed the transition.
func (g *Gateway) Apply(ctx context.Context, id primitive.ObjectID, requested string, detail TransitionDetail) (Result, error) {
	now := time.Now()

	var (
		applied bool
		expiry  time.Time
		err     error
	)
	switch requested {
	case models.OrderStatusPaid:
		applied, err = g.store.MarkPaid(ctx, id, detail, now)
	case models.OrderStatusFailed:
		expiry = now.Add(g.retention)
		applied, err = g.store.MarkFailed(ctx, id, detail.Reason, now, expiry)
	case models.OrderStatusCancelled:
		applied, err = g.store.MarkCancelled(ctx, id)
	default:
		return Result{}, fmt.Errorf("unsupported transition to %q", requested)
	}
	if err != nil {
		return Result{}, err
	}

	order, err := g.store.Find(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if applied {
		log.Printf("[PAYMENT] [INFO] order %s transitioned to %s", id.Hex(), requested)
		if requested == models.OrderStatusFailed && g.onFailed != nil {
			g.onFailed(id, expiry)
		}
		return Result{Outcome: OutcomeApplied, Order: order}, nil
	}

	if order.Status == requested {
		return Result{Outcome: OutcomeAlreadyApplied, Order: order}, nil
	}

	log.Printf("[PAYMENT] [WARN] rejected %s -> %s for order %s", order.Status, requested, id.Hex())
	return Result{Outcome: OutcomeConflict, Order: order}, nil
}
