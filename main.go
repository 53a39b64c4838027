package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}

	store := payment.NewOrderStore(db)
	gateway := payment.NewGateway(store, config.AppEnv.OrderRetention)
	sweeper := payment.NewSweeper(store, config.AppEnv.SweepInterval)
	gateway.OnFailed(func(id primitive.ObjectID, expiry time.Time) {
		sweeper.ScheduleDeletion(id, expiry)
	})
	go sweeper.Run(context.Background())

	wallet := payment.NewWalletClient(payment.WalletConfig{
		PartnerCode: config.AppEnv.WalletPartnerCode,
		AccessKey:   config.AppEnv.WalletAccessKey,
		SecretKey:   config.AppEnv.WalletSecretKey,
		Endpoint:    config.AppEnv.WalletEndpoint,
		RedirectURL: config.AppEnv.WalletRedirectURL,
		IPNURL:      config.AppEnv.WalletIPNURL,
		Timeout:     config.AppEnv.WalletTimeout,
	})

	banks := make([]payment.Bank, 0, len(config.AppEnv.Banks))
	for _, bank := range config.AppEnv.Banks {
		banks = append(banks, payment.Bank{ID: bank.ID, Name: bank.Name})
	}
	banking := payment.NewBankingService(payment.BankingConfig{
		AccountNumber: config.AppEnv.BankAccountNumber,
		AccountName:   config.AppEnv.BankAccountName,
		Banks:         banks,
	})

	r := gin.Default()

	r.POST("/orders", handlers.CreateOrder(db, config.AppEnv.JWTSecret))
	r.GET("/orders", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetOrders(db))
	r.GET("/orders/:id", handlers.GetOrder(db))

	r.POST("/carts", handlers.CreateCart(db, config.AppEnv.JWTSecret))
	r.GET("/carts/:id", handlers.GetCart(db))
	r.PUT("/carts/:id", handlers.UpdateCart(db))

	pay := r.Group("/payment")
	{
		pay.GET("/methods", handlers.GetPaymentMethods(banking))
		pay.POST("/wallet/create", handlers.CreateWalletPayment(db, store, wallet))
		pay.POST("/wallet/ipn", handlers.WalletIPN(db, wallet, gateway))
		pay.GET("/wallet/verify/:paymentId", handlers.VerifyPayment(db, store, gateway, false))
		pay.POST("/banking/create", handlers.CreateBankingPayment(db, store, banking, gateway))
		pay.GET("/verify/:orderId", handlers.VerifyPayment(db, store, gateway, true))
		pay.POST("/update-status/:orderId", handlers.UpdatePaymentStatus(store, gateway, config.AppEnv.JWTSecret))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
