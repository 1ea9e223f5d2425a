package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	EcommerceBaseURL string
	ReceiptPath      string
	ErrorPath        string

	QPayBaseURL      string
	QPayInvoiceCode  string
	QPayClientID     string
	QPayClientSecret string
	QPayCallbackURL  string
	QPayTimeout      time.Duration

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

var Module = fx.Provide(Load)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "checkout"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		EcommerceBaseURL: strings.TrimRight(getenv("ECOMMERCE_BASE_URL", "http://localhost:8080"), "/"),
		ReceiptPath:      getenv("RECEIPT_PATH", "/checkout/receipt/"),
		ErrorPath:        getenv("ERROR_PATH", "/checkout/error/"),

		QPayBaseURL:      strings.TrimRight(getenv("QPAY_BASE_URL", "https://merchant.qpay.mn/v2"), "/"),
		QPayInvoiceCode:  strings.TrimSpace(getenv("QPAY_INVOICE_CODE", "")),
		QPayClientID:     strings.TrimSpace(getenv("QPAY_CLIENT_ID", "")),
		QPayClientSecret: strings.TrimSpace(getenv("QPAY_CLIENT_SECRET", "")),
		QPayCallbackURL:  strings.TrimRight(getenv("QPAY_CALLBACK_URL", ""), "/"),
		QPayTimeout:      getenvDuration("QPAY_TIMEOUT", 12*time.Second),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "checkout"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
