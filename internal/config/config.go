package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AllowMockTokens  bool
	CookieSecure     bool
	CSRFEnabled      bool
	CORSOrigins      []string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	UploadDir        string
	PublicDir        string
	PlaceholderImage string

	Shop Shop
}

// Shop holds the pricing knobs used at checkout and on the dashboard.
type Shop struct {
	TaxRate               float64
	ShippingFlat          float64
	FreeShippingThreshold float64
	LowStockThreshold     int
}

func DefaultShop() Shop {
	return Shop{
		TaxRate:               0.11,
		ShippingFlat:          5,
		FreeShippingThreshold: 100,
		LowStockThreshold:     5,
	}
}

// Load reads the optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not loaded: %v, using system environment", err)
	}

	def := DefaultShop()
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "bbn-storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AllowMockTokens:  EnvBoolDefault("AUTH_ALLOW_MOCK_TOKENS", false),
		CookieSecure:     EnvBoolDefault("COOKIE_SECURE", true),
		CSRFEnabled:      EnvBoolDefault("CSRF_ENABLED", false),
		CORSOrigins:      CSV(EnvDefault("CORS_ORIGINS", "http://localhost:3000")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		UploadDir:        EnvDefault("UPLOAD_DIR", "./public/uploads"),
		PublicDir:        EnvDefault("PUBLIC_DIR", "./public"),
		PlaceholderImage: EnvDefault("PLACEHOLDER_IMAGE", "/images/placeholder.png"),

		Shop: Shop{
			TaxRate:               EnvFloatDefault("TAX_RATE", def.TaxRate),
			ShippingFlat:          EnvFloatDefault("SHIPPING_FLAT", def.ShippingFlat),
			FreeShippingThreshold: EnvFloatDefault("FREE_SHIPPING_THRESHOLD", def.FreeShippingThreshold),
			LowStockThreshold:     EnvIntDefault("LOW_STOCK_THRESHOLD", def.LowStockThreshold),
		},
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
