package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

type GatewayTestSuite struct {
	suite.Suite
	store   *memStore
	gateway *Gateway
}

func (s *GatewayTestSuite) SetupTest() {
	s.store = newMemStore()
	s.gateway = NewGateway(s.store, 24*time.Hour)
}

func (s *GatewayTestSuite) TestPaidTransition() {
	id := s.store.put(pendingOrder(models.PaymentMethodWallet))

	res, err := s.gateway.Apply(context.Background(), id, models.OrderStatusPaid, TransitionDetail{
		TransID: "2147483647",
		Amount:  100000,
	})
	s.NoError(err)
	s.Equal(OutcomeApplied, res.Outcome)
	s.Equal(models.OrderStatusPaid, res.Order.Status)
	s.NotNil(res.Order.PaymentDetails.PaidAt)
	s.Equal("2147483647", res.Order.PaymentDetails.TransID)
	s.Nil(res.Order.ExpiryDate)
}

func (s *GatewayTestSuite) TestDuplicatePaidIsIdempotent() {
	id := s.store.put(pendingOrder(models.PaymentMethodWallet))

	first, err := s.gateway.Apply(context.Background(), id, models.OrderStatusPaid, TransitionDetail{TransID: "42"})
	s.NoError(err)
	s.Equal(OutcomeApplied, first.Outcome)
	paidAt := *first.Order.PaymentDetails.PaidAt

	second, err := s.gateway.Apply(context.Background(), id, models.OrderStatusPaid, TransitionDetail{TransID: "42"})
	s.NoError(err)
	s.Equal(OutcomeAlreadyApplied, second.Outcome)
	s.Equal(models.OrderStatusPaid, second.Order.Status)
	s.True(paidAt.Equal(*second.Order.PaymentDetails.PaidAt), "paidAt must not be re-stamped")
}

func (s *GatewayTestSuite) TestFailedSetsExpiryAndReason() {
	id := s.store.put(pendingOrder(models.PaymentMethodWallet))

	var hookCalls int
	s.gateway.OnFailed(func(hookID primitive.ObjectID, expiry time.Time) {
		hookCalls++
		s.Equal(id, hookID)
	})

	before := time.Now()
	res, err := s.gateway.Apply(context.Background(), id, models.OrderStatusFailed, TransitionDetail{Reason: "Insufficient funds"})
	s.NoError(err)
	s.Equal(OutcomeApplied, res.Outcome)
	s.Equal(models.OrderStatusFailed, res.Order.Status)
	s.Equal("Insufficient funds", res.Order.PaymentDetails.FailedReason)
	s.NotNil(res.Order.PaymentDetails.FailedAt)

	s.Require().NotNil(res.Order.ExpiryDate)
	expiry := *res.Order.ExpiryDate
	s.WithinDuration(before.Add(24*time.Hour), expiry, time.Minute)

	s.Equal(1, hookCalls)

	// re-delivery of the same failure is a no-op and must not re-arm the hook
	res, err = s.gateway.Apply(context.Background(), id, models.OrderStatusFailed, TransitionDetail{Reason: "Insufficient funds"})
	s.NoError(err)
	s.Equal(OutcomeAlreadyApplied, res.Outcome)
	s.Equal(1, hookCalls)
	s.True(expiry.Equal(*res.Order.ExpiryDate))
}

func (s *GatewayTestSuite) TestNoBackwardTransitions() {
	terminalSetups := []struct {
		name  string
		state string
	}{
		{"paid", models.OrderStatusPaid},
		{"failed", models.OrderStatusFailed},
		{"cancelled", models.OrderStatusCancelled},
	}

	for _, setup := range terminalSetups {
		order := pendingOrder(models.PaymentMethodWallet)
		order.Status = setup.state
		if setup.state == models.OrderStatusFailed {
			expiry := time.Now().Add(time.Hour)
			order.ExpiryDate = &expiry
		}
		id := s.store.put(order)

		for _, requested := range []string{models.OrderStatusPaid, models.OrderStatusFailed, models.OrderStatusCancelled} {
			if requested == setup.state {
				continue
			}
			res, err := s.gateway.Apply(context.Background(), id, requested, TransitionDetail{})
			s.NoError(err)
			s.Equal(OutcomeConflict, res.Outcome, "%s -> %s must be rejected", setup.state, requested)
			s.Equal(setup.state, res.Order.Status, "status must be unchanged")
		}
	}
}

func (s *GatewayTestSuite) TestCancelGuard() {
	id := s.store.put(pendingOrder(models.PaymentMethodBankTransfer))

	res, err := s.gateway.Apply(context.Background(), id, models.OrderStatusCancelled, TransitionDetail{})
	s.NoError(err)
	s.Equal(OutcomeApplied, res.Outcome)
	s.Equal(models.OrderStatusCancelled, res.Order.Status)
	s.Nil(res.Order.ExpiryDate)

	paid := pendingOrder(models.PaymentMethodWallet)
	paid.Status = models.OrderStatusPaid
	paidID := s.store.put(paid)

	res, err = s.gateway.Apply(context.Background(), paidID, models.OrderStatusCancelled, TransitionDetail{})
	s.NoError(err)
	s.Equal(OutcomeConflict, res.Outcome)
	s.Equal(models.OrderStatusPaid, res.Order.Status)
}

func (s *GatewayTestSuite) TestMissingOrder() {
	_, err := s.gateway.Apply(context.Background(), primitive.NewObjectID(), models.OrderStatusPaid, TransitionDetail{})
	s.ErrorIs(err, ErrOrderNotFound)
}

func (s *GatewayTestSuite) TestUnsupportedTransition() {
	id := s.store.put(pendingOrder(models.PaymentMethodWallet))
	_, err := s.gateway.Apply(context.Background(), id, models.OrderStatusProcessing, TransitionDetail{})
	s.Error(err)
}

// Two settlement attempts racing on the same order: exactly one may win.
func (s *GatewayTestSuite) TestConcurrentSettlement() {
	id := s.store.put(pendingOrder(models.PaymentMethodWallet))

	results := make([]Result, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res, err := s.gateway.Apply(context.Background(), id, models.OrderStatusPaid, TransitionDetail{TransID: "1"})
		s.NoError(err)
		results[0] = res
	}()
	go func() {
		defer wg.Done()
		res, err := s.gateway.Apply(context.Background(), id, models.OrderStatusFailed, TransitionDetail{Reason: "timeout"})
		s.NoError(err)
		results[1] = res
	}()
	wg.Wait()

	applied := 0
	for _, res := range results {
		if res.Outcome == OutcomeApplied {
			applied++
		}
	}
	s.Equal(1, applied, "exactly one attempt may perform the transition")

	order, err := s.store.Find(context.Background(), id)
	s.NoError(err)
	s.Contains([]string{models.OrderStatusPaid, models.OrderStatusFailed}, order.Status)
	if order.Status == models.OrderStatusPaid {
		s.Nil(order.ExpiryDate)
	} else {
		s.NotNil(order.ExpiryDate)
	}
}

func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}
