package payment

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// TransitionDetail carries the gateway-confirmed facts recorded alongside a
// status transition. Zero values are simply not written.
type TransitionDetail struct {
	TransID string
	Amount  float64
	Reason  string
}

// OrderStore is the persistence surface the reconciliation gateway and the
// expiry sweeper operate on. Every Mark* call is a conditional write that
// only matches an order still in the pending state; the bool result reports
// whether a document was updated. That conditional filter is what makes
// concurrent callbacks and verify requests safe: at most one of them wins.
type OrderStore interface {
	Find(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, detail TransitionDetail, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, at, expiry time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetWalletSession(ctx context.Context, id primitive.ObjectID, requestID string, amount float64) (bool, error)
	SetBankInstructions(ctx context.Context, id primitive.ObjectID, bankID string, amount float64, content string) (bool, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredByID(ctx context.Context, id primitive.ObjectID, cutoff time.Time) (bool, error)
}

// MongoOrderStore implements OrderStore on the orders collection.
type MongoOrderStore struct {
	orders *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{orders: db.Collection("orders")}
}

func (s *MongoOrderStore) Find(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoOrderStore) MarkPaid(ctx context.Context, id primitive.ObjectID, detail TransitionDetail, at time.Time) (bool, error) {
	set := bson.M{
		"status":                models.OrderStatusPaid,
		"paymentDetails.paidAt": at,
	}
	if detail.TransID != "" {
		set["paymentDetails.transId"] = detail.TransID
	}
	if detail.Amount > 0 {
		set["paymentDetails.amount"] = detail.Amount
	}
	return s.updateIfPending(ctx, id, bson.M{
		"$set":   set,
		"$unset": bson.M{"expiryDate": ""},
	})
}

func (s *MongoOrderStore) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, at, expiry time.Time) (bool, error) {
	return s.updateIfPending(ctx, id, bson.M{
		"$set": bson.M{
			"status":                      models.OrderStatusFailed,
			"paymentDetails.failedAt":     at,
			"paymentDetails.failedReason": reason,
			"expiryDate":                  expiry,
		},
	})
}

func (s *MongoOrderStore) MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.updateIfPending(ctx, id, bson.M{
		"$set": bson.M{"status": models.OrderStatusCancelled},
	})
}

// SetWalletSession records the wallet session created for a pending order.
// The order stays pending; the gateway callback settles it later.
func (s *MongoOrderStore) SetWalletSession(ctx context.Context, id primitive.ObjectID, requestID string, amount float64) (bool, error) {
	return s.updateIfPending(ctx, id, bson.M{
		"$set": bson.M{
			"paymentDetails.method":    models.PaymentMethodWallet,
			"paymentDetails.requestId": requestID,
			"paymentDetails.amount":    amount,
		},
	})
}

// SetBankInstructions records the issued transfer instructions. The order
// stays pending until an operator confirms the transfer out of band.
func (s *MongoOrderStore) SetBankInstructions(ctx context.Context, id primitive.ObjectID, bankID string, amount float64, content string) (bool, error) {
	return s.updateIfPending(ctx, id, bson.M{
		"$set": bson.M{
			"paymentDetails.method":          models.PaymentMethodBankTransfer,
			"paymentDetails.bankId":          bankID,
			"paymentDetails.amount":          amount,
			"paymentDetails.transferContent": content,
		},
	})
}

func (s *MongoOrderStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.orders.DeleteMany(ctx, bson.M{
		"status":     models.OrderStatusFailed,
		"expiryDate": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoOrderStore) DeleteExpiredByID(ctx context.Context, id primitive.ObjectID, cutoff time.Time) (bool, error) {
	res, err := s.orders.DeleteOne(ctx, bson.M{
		"_id":        id,
		"status":     models.OrderStatusFailed,
		"expiryDate": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoOrderStore) updateIfPending(ctx context.Context, id primitive.ObjectID, update bson.M) (bool, error) {
	res, err := s.orders.UpdateOne(ctx, bson.M{
		"_id":    id,
		"status": models.OrderStatusPending,
	}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
