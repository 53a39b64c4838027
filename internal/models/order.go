package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. An order starts as pending and moves at most once into
// paid, failed or cancelled. The processing value belongs to the operator
// fulfilment workflow and is never set by the payment endpoints.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

// Payment method identifiers accepted at checkout.
const (
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bankTransfer"
)

// OrderItem represents a single product entry within an order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// OrderCustomer captures the contact details collected at checkout.
type OrderCustomer struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Note    string `bson:"note,omitempty" json:"note,omitempty"`
}

// PaymentDetails is the variant payment record attached to an order. Which
// fields are populated depends on the payment method and the current status:
// wallet orders carry requestId (plus transId and the confirmed amount once
// the gateway reports), bank-transfer orders carry bankId and
// transferContent. PaidAt is set iff the order is paid; FailedAt and
// FailedReason iff it failed.
type PaymentDetails struct {
	Method          string     `bson:"method" json:"method"`
	BankID          string     `bson:"bankId,omitempty" json:"bankId,omitempty"`
	RequestID       string     `bson:"requestId,omitempty" json:"requestId,omitempty"`
	TransID         string     `bson:"transId,omitempty" json:"transId,omitempty"`
	Amount          float64    `bson:"amount,omitempty" json:"amount,omitempty"`
	TransferContent string     `bson:"transferContent,omitempty" json:"transferContent,omitempty"`
	PaidAt          *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	FailedAt        *time.Time `bson:"failedAt,omitempty" json:"failedAt,omitempty"`
	FailedReason    string     `bson:"failedReason,omitempty" json:"failedReason,omitempty"`
}

// Order defines the persisted order document. ExpiryDate is only ever set on
// failed orders and marks when the sweeper may delete them.
type Order struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         *primitive.ObjectID `bson:"userId" json:"userId"`
	CartID         *primitive.ObjectID `bson:"cartId,omitempty" json:"cartId,omitempty"`
	Items          []OrderItem         `bson:"items" json:"items"`
	TotalAmount    float64             `bson:"totalAmount" json:"totalAmount"`
	Customer       OrderCustomer       `bson:"customer" json:"customer"`
	PaymentMethod  string              `bson:"paymentMethod" json:"paymentMethod"`
	Status         string              `bson:"status" json:"status"`
	PaymentDetails *PaymentDetails     `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	ExpiryDate     *time.Time          `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}
