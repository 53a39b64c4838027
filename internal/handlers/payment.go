package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/payment"
)

/* =========================
   REQUEST DTOs
========================= */

type createWalletPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	Amount    int64  `json:"amount"`
	OrderInfo string `json:"orderInfo"`
}

type bankingCustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type createBankingPaymentRequest struct {
	OrderID      string              `json:"orderId" binding:"required"`
	Amount       float64             `json:"amount"`
	BankID       string              `json:"bankId" binding:"required"`
	CustomerInfo bankingCustomerInfo `json:"customerInfo"`
}

type updatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

/* =========================
   PAYMENT METHODS
========================= */

// GetPaymentMethods lists the methods the storefront offers.
func GetPaymentMethods(banking *payment.BankingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{
			{
				"id":          models.PaymentMethodWallet,
				"name":        "Mobile wallet",
				"description": "Pay on the wallet gateway payment page",
			},
			{
				"id":          models.PaymentMethodBankTransfer,
				"name":        "Bank transfer",
				"description": "Transfer manually using the provided instructions",
				"banks":       banking.Banks(),
			},
		})
	}
}

/* =========================
   WALLET: CREATE SESSION
========================= */

func CreateWalletPayment(db *mongo.Database, store payment.OrderStore, wallet *payment.WalletClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/wallet/create"
		defer handlePanic(c, route)

		var req createWalletPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		order, err := store.Find(ctx, orderID)
		if errors.Is(err, payment.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.Status != models.OrderStatusPending {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}
		if order.PaymentMethod != models.PaymentMethodWallet {
			respondWithError(c, http.StatusBadRequest, route, "order is not a wallet order")
			return
		}

		amount := req.Amount
		if amount <= 0 {
			amount = int64(order.TotalAmount)
		}
		orderInfo := req.OrderInfo
		if orderInfo == "" {
			orderInfo = fmt.Sprintf("Storefront order %s", order.ID.Hex())
		}

		session, err := wallet.CreateSession(ctx, order.ID.Hex(), amount, orderInfo)
		if err != nil {
			// the order stays pending; the client may retry
			log.Println("[PAYMENT] [ERROR] wallet session creation failed:", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "could not create wallet payment session",
			})
			return
		}

		matched, err := store.SetWalletSession(ctx, order.ID, session.RequestID, float64(amount))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !matched {
			// settled by a concurrent callback between our read and write
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}

		clearCart(ctx, db, order.CartID)

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"payUrl":    session.PayURL,
			"orderId":   order.ID.Hex(),
			"requestId": session.RequestID,
		})
	}
}

/* =========================
   WALLET: IPN CALLBACK
========================= */

// WalletIPN receives the gateway's server-to-server payment notification.
// The gateway retries undelivered notifications, so every reachable order
// gets a success acknowledgement even when the transition was a no-op.
func WalletIPN(db *mongo.Database, wallet *payment.WalletClient, gateway *payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/wallet/ipn"
		defer handlePanic(c, route)

		var p payment.IPNPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid payload"})
			return
		}

		if err := wallet.VerifyIPN(p); err != nil {
			log.Println("[PAYMENT] [ERROR] IPN signature rejected for order:", p.OrderID)
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "invalid signature"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(p.OrderID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "order not found"})
			return
		}

		requested := models.OrderStatusPaid
		detail := payment.TransitionDetail{
			TransID: strconv.FormatInt(p.TransID, 10),
			Amount:  float64(p.Amount),
		}
		if !p.Succeeded() {
			requested = models.OrderStatusFailed
			detail = payment.TransitionDetail{Reason: p.Message}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := gateway.Apply(ctx, orderID, requested, detail)
		if errors.Is(err, payment.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "order not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// defensive: the order may have been created through a flow that
		// never cleared the cart
		clearCart(ctx, db, result.Order.CartID)

		switch result.Outcome {
		case payment.OutcomeApplied:
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "order " + requested})
		default:
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "already reconciled"})
		}
	}
}

/* =========================
   BANKING: CREATE INSTRUCTIONS
========================= */

func CreateBankingPayment(db *mongo.Database, store payment.OrderStore, banking *payment.BankingService, gateway *payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/banking/create"
		defer handlePanic(c, route)

		var req createBankingPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := store.Find(ctx, orderID)
		if errors.Is(err, payment.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.Status != models.OrderStatusPending {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}
		if order.PaymentMethod != models.PaymentMethodBankTransfer {
			respondWithError(c, http.StatusBadRequest, route, "order is not a bank-transfer order")
			return
		}

		amount := req.Amount
		if amount <= 0 {
			amount = order.TotalAmount
		}

		info, err := banking.Instructions(order.ID.Hex(), amount, req.BankID)
		if errors.Is(err, payment.ErrUnknownBank) {
			respondWithError(c, http.StatusBadRequest, route, "unknown bank")
			return
		}
		if err != nil {
			failBankingSetup(ctx, gateway, order.ID, route)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to set up bank transfer"})
			return
		}

		matched, err := store.SetBankInstructions(ctx, order.ID, info.BankID, amount, info.Content)
		if err != nil {
			// do not leave the order ambiguous: degrade it to failed
			failBankingSetup(ctx, gateway, order.ID, route)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to set up bank transfer"})
			return
		}
		if !matched {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}

		clearCart(ctx, db, order.CartID)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"paymentInfo": info,
			"orderId":     order.ID.Hex(),
		})
	}
}

func failBankingSetup(ctx context.Context, gateway *payment.Gateway, orderID primitive.ObjectID, route string) {
	_, err := gateway.Apply(ctx, orderID, models.OrderStatusFailed, payment.TransitionDetail{
		Reason: "Failed to set up bank transfer",
	})
	if err != nil {
		log.Printf("[%s] could not degrade order %s to failed: %v", route, orderID.Hex(), err)
	}
}

/* =========================
   VERIFY
========================= */

// VerifyPayment resolves the order's settlement state for the client. A
// wallet order still pending is optimistically promoted to paid: the user was
// redirected back with a success indicator and the money has already moved,
// so the design favors not blocking them over waiting for the callback.
func VerifyPayment(db *mongo.Database, store payment.OrderStore, gateway *payment.Gateway, includeExpiry bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment/verify"
		defer handlePanic(c, route)

		param := c.Param("orderId")
		if param == "" {
			param = c.Param("paymentId")
		}
		orderID, err := primitive.ObjectIDFromHex(param)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := store.Find(ctx, orderID)
		if errors.Is(err, payment.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if order.Status == models.OrderStatusPending && order.PaymentMethod == models.PaymentMethodWallet {
			result, err := gateway.Apply(ctx, orderID, models.OrderStatusPaid, payment.TransitionDetail{})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			order = result.Order
			if result.Outcome == payment.OutcomeApplied {
				clearCart(ctx, db, order.CartID)
			}
		}

		resp := gin.H{
			"success":        true,
			"orderId":        order.ID.Hex(),
			"status":         order.Status,
			"paymentDetails": order.PaymentDetails,
		}
		if includeExpiry {
			resp["expiryDate"] = order.ExpiryDate
		}
		c.JSON(http.StatusOK, resp)
	}
}

/* =========================
   UPDATE STATUS (cancel / mark failed)
========================= */

// UpdatePaymentStatus lets the client abandon a pending payment ("failed",
// with a 24h expiry before deletion) or cancel a pending order outright
// ("cancelled", owner only).
func UpdatePaymentStatus(store payment.OrderStore, gateway *payment.Gateway, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/update-status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		var req updatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Status != models.OrderStatusFailed && req.Status != models.OrderStatusCancelled {
			respondWithError(c, http.StatusBadRequest, route, "status must be failed or cancelled")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if req.Status == models.OrderStatusCancelled {
			order, err := store.Find(ctx, orderID)
			if errors.Is(err, payment.ErrOrderNotFound) {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if order.UserID != nil {
				userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
				if err != nil || userID == nil || *userID != *order.UserID {
					respondWithError(c, http.StatusForbidden, route, "only the order owner can cancel")
					return
				}
			}
		}

		reason := req.Reason
		if reason == "" {
			reason = "Payment cancelled by customer"
		}

		result, err := gateway.Apply(ctx, orderID, req.Status, payment.TransitionDetail{Reason: reason})
		if errors.Is(err, payment.ErrOrderNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		switch result.Outcome {
		case payment.OutcomeConflict:
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "order is already " + result.Order.Status,
				"orderId": result.Order.ID.Hex(),
			})
		default:
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "order " + req.Status,
				"orderId": result.Order.ID.Hex(),
			})
		}
	}
}
