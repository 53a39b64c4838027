package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func validCreateOrderRequest() createOrderRequest {
	return createOrderRequest{
		Items: []createOrderItemRequest{
			{ProductID: primitive.NewObjectID().Hex(), Quantity: 2},
		},
		Customer: createOrderCustomerRequest{
			Name:    "Test Customer",
			Email:   "customer@example.com",
			Phone:   "0900000000",
			Address: "1 Test Street",
		},
		PaymentMethod: models.PaymentMethodWallet,
	}
}

func TestBuildOrderFromRequest(t *testing.T) {
	order, err := buildOrderFromRequest(validCreateOrderRequest())
	if err != nil {
		t.Fatalf("buildOrderFromRequest returned error: %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("new orders must start pending, got %q", order.Status)
	}
	if order.PaymentMethod != models.PaymentMethodWallet {
		t.Fatalf("unexpected payment method %q", order.PaymentMethod)
	}
	if order.ExpiryDate != nil {
		t.Fatal("new orders must not carry an expiry date")
	}
	if order.CartID != nil {
		t.Fatal("cartId not supplied, must stay nil")
	}
}

func TestBuildOrderFromRequestKeepsCartReference(t *testing.T) {
	req := validCreateOrderRequest()
	cartID := primitive.NewObjectID()
	req.CartID = cartID.Hex()

	order, err := buildOrderFromRequest(req)
	if err != nil {
		t.Fatalf("buildOrderFromRequest returned error: %v", err)
	}
	if order.CartID == nil || *order.CartID != cartID {
		t.Fatalf("expected cart reference %s, got %v", cartID.Hex(), order.CartID)
	}
}

func TestBuildOrderFromRequestRejectsBadInput(t *testing.T) {
	noItems := validCreateOrderRequest()
	noItems.Items = nil
	if _, err := buildOrderFromRequest(noItems); err == nil {
		t.Fatal("expected error for empty items")
	}

	badMethod := validCreateOrderRequest()
	badMethod.PaymentMethod = "cash"
	if _, err := buildOrderFromRequest(badMethod); err == nil {
		t.Fatal("expected error for unsupported payment method")
	}

	zeroQuantity := validCreateOrderRequest()
	zeroQuantity.Items[0].Quantity = 0
	if _, err := buildOrderFromRequest(zeroQuantity); err == nil {
		t.Fatal("expected error for zero quantity")
	}

	badProduct := validCreateOrderRequest()
	badProduct.Items[0].ProductID = "not-a-hex-id"
	if _, err := buildOrderFromRequest(badProduct); err == nil {
		t.Fatal("expected error for invalid productId")
	}

	badCart := validCreateOrderRequest()
	badCart.CartID = "nope"
	if _, err := buildOrderFromRequest(badCart); err == nil {
		t.Fatal("expected error for invalid cartId")
	}
}

func TestEffectiveProductPrice(t *testing.T) {
	if got := effectiveProductPrice(100, true, 75); got != 75 {
		t.Fatalf("expected sale price 75, got %v", got)
	}
	if got := effectiveProductPrice(100, false, 75); got != 100 {
		t.Fatalf("expected regular price 100 when sale disabled, got %v", got)
	}
	if got := effectiveProductPrice(100, true, 120); got != 100 {
		t.Fatalf("sale price above regular price must be ignored, got %v", got)
	}
	if got := effectiveProductPrice(100, true, 0); got != 100 {
		t.Fatalf("zero sale price must be ignored, got %v", got)
	}
}
