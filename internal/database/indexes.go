package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	// backs the sweeper's delete query
	expiryIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expiryDate", Value: 1},
		},
		Options: options.Index().
			SetName("status_expiry_index").
			SetPartialFilterExpression(bson.M{
				"expiryDate": bson.M{"$exists": true},
			}),
	}

	log.Println("EnsureOrderIndexes: creating userId_index and status_expiry_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{userIDIndex, expiryIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("carts").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("cart_userId_index").
			SetPartialFilterExpression(bson.M{
				"userId": bson.M{"$exists": true},
			}),
	}

	log.Println("EnsureCartIndexes: creating cart_userId_index")
	_, err := indexes.CreateOne(ctx, userIDIndex)
	if err != nil {
		log.Println("EnsureCartIndexes: userId index error:", err)
		return err
	}
	log.Println("EnsureCartIndexes: cart_userId_index created")
	return nil
}
