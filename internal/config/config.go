package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-supplied application configuration.
type Config struct {
	Port     string
	BaseURL  string
	DBPath   string
	LogLevel string

	// Secret used to sign session-bound CSRF tokens.
	CSRFSecret string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	ProPriceID          string
	ProPlusPriceID      string

	// Outbound email (Postmark)
	PostmarkToken string
	FromEmail     string

	// Inbound email webhook shared secret
	InboundEmailToken string

	// Web Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// Backup storage (S3-compatible)
	S3Endpoint       string
	S3Bucket         string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	BackupPassphrase string

	SessionTTL time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// if one exists.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("HEARTH_PORT", "8080"),
		BaseURL:  getEnv("HEARTH_BASE_URL", "http://localhost:8080"),
		DBPath:   getEnv("HEARTH_DB_PATH", "hearth.db"),
		LogLevel: getEnv("HEARTH_LOG_LEVEL", "info"),

		CSRFSecret: getEnv("HEARTH_CSRF_SECRET", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		ProPriceID:          getEnv("STRIPE_PRO_PRICE_ID", ""),
		ProPlusPriceID:      getEnv("STRIPE_PRO_PLUS_PRICE_ID", ""),

		PostmarkToken: getEnv("POSTMARK_SERVER_TOKEN", ""),
		FromEmail:     getEnv("HEARTH_FROM_EMAIL", "hello@hearth.app"),

		InboundEmailToken: getEnv("HEARTH_INBOUND_EMAIL_TOKEN", ""),

		VAPIDPublicKey:  getEnv("HEARTH_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("HEARTH_VAPID_PRIVATE_KEY", ""),

		S3Endpoint:       getEnv("HEARTH_S3_ENDPOINT", ""),
		S3Bucket:         getEnv("HEARTH_S3_BUCKET", ""),
		S3Region:         getEnv("HEARTH_S3_REGION", "auto"),
		S3AccessKey:      getEnv("HEARTH_S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("HEARTH_S3_SECRET_KEY", ""),
		BackupPassphrase: getEnv("HEARTH_BACKUP_PASSPHRASE", ""),

		SessionTTL: getEnvDuration("HEARTH_SESSION_TTL", 90*24*time.Hour),
	}

	// CSRF tokens must never be signed with an empty key. Tokens are
	// stateless, so a per-process key only invalidates outstanding
	// tokens on restart.
	if cfg.CSRFSecret == "" {
		cfg.CSRFSecret = randomSecret()
	}

	return cfg
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random: %v", err))
	}
	return hex.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
