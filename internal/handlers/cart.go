package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type updateCartRequest struct {
	Items []cartItemRequest `json:"items" binding:"required"`
}

// CreateCart opens an empty cart and returns its id. The id is the handle
// the client carries through checkout; there is no session-bound cart.
func CreateCart(db *mongo.Database, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /carts"
		defer handlePanic(c, route)

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		cart := models.Cart{
			UserID:    userID,
			Items:     []models.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := db.Collection("carts").InsertOne(ctx, cart)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		id, _ := res.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, gin.H{"cartId": id.Hex()})
	}
}

func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err = db.Collection("carts").FindOne(ctx, bson.M{"_id": cartID}).Decode(&cart)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

// UpdateCart replaces the cart's items.
func UpdateCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /carts/:id"
		defer handlePanic(c, route)

		cartID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		items := make([]models.CartItem, 0, len(req.Items))
		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
				return
			}
			if item.Quantity <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be greater than zero"})
				return
			}
			items = append(items, models.CartItem{ProductID: productID, Quantity: item.Quantity})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("carts").UpdateOne(ctx,
			bson.M{"_id": cartID},
			bson.M{"$set": bson.M{"items": items, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
	}
}

// clearCart empties the cart referenced by an order after a payment attempt.
// Clearing is idempotent and never fails the payment path; errors are logged
// and swallowed.
func clearCart(ctx context.Context, db *mongo.Database, cartID *primitive.ObjectID) {
	if cartID == nil {
		return
	}

	_, err := db.Collection("carts").UpdateOne(ctx,
		bson.M{"_id": *cartID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
	)
	if err != nil {
		log.Printf("[CART] [ERROR] clearing cart %s failed: %v", cartID.Hex(), err)
		return
	}
	log.Printf("[CART] [INFO] cart %s cleared", cartID.Hex())
}
