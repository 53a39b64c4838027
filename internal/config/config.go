package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

// BankOption is one configured destination bank for manual transfers.
type BankOption struct {
	ID   string
	Name string
}

type Config struct {
	MongoURI  string
	DBName    string
	JWTSecret string

	// Wallet gateway partner credentials. Secrets are environment-bound;
	// rotation is handled outside this service.
	WalletPartnerCode string
	WalletAccessKey   string
	WalletSecretKey   string
	WalletEndpoint    string
	WalletRedirectURL string
	WalletIPNURL      string
	WalletTimeout     time.Duration

	// Receiving account for manual bank transfers.
	BankAccountNumber string
	BankAccountName   string
	Banks             []BankOption

	// How long a failed order is kept before the sweeper may delete it, and
	// how often the sweeper runs.
	OrderRetention time.Duration
	SweepInterval  time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:  getEnvOrDefault("MONGO_URI", ""),
		DBName:    getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),

		WalletPartnerCode: getEnvOrDefault("WALLET_PARTNER_CODE", ""),
		WalletAccessKey:   getEnvOrDefault("WALLET_ACCESS_KEY", ""),
		WalletSecretKey:   getEnvOrDefault("WALLET_SECRET_KEY", ""),
		WalletEndpoint:    getEnvOrDefault("WALLET_ENDPOINT", ""),
		WalletRedirectURL: getEnvOrDefault("WALLET_REDIRECT_URL", ""),
		WalletIPNURL:      getEnvOrDefault("WALLET_IPN_URL", ""),
		WalletTimeout:     getDurationEnv("WALLET_TIMEOUT", 10, time.Second),

		BankAccountNumber: getEnvOrDefault("BANK_ACCOUNT_NUMBER", ""),
		BankAccountName:   getEnvOrDefault("BANK_ACCOUNT_NAME", ""),
		Banks:             getBankListEnv("BANK_LIST", "VIETCOMBANK:Vietcombank,TECHCOMBANK:Techcombank"),

		OrderRetention: getDurationEnv("ORDER_RETENTION", 24, time.Hour),
		SweepInterval:  getDurationEnv("SWEEP_INTERVAL", 1, time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

// getBankListEnv parses a "ID:Display Name,ID:Display Name" list. Entries
// without a display name reuse the id.
func getBankListEnv(key, defaultValue string) []BankOption {
	raw := getEnvOrDefault(key, defaultValue)

	banks := make([]BankOption, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		name = strings.TrimSpace(name)
		if !found || name == "" {
			name = id
		}
		banks = append(banks, BankOption{ID: id, Name: name})
	}
	return banks
}
