// config/config.go
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port       string   `env:"PORT" envDefault:"8080"`
	PublicURL  string   `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	AdminRoute string   `env:"ADMIN_ROUTE" envDefault:"/admin"`
	Origins    []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string `env:"MONGO_URI"`
	DBName      string `env:"DB_NAME" envDefault:"taskreward"`

	// Sessions
	SessionDriver string        `env:"SESSION_DRIVER" envDefault:"redis"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SecretKey     string        `env:"SECRET_KEY,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SecureCookie  bool          `env:"SECURE_COOKIE" envDefault:"true"`

	// Firebase
	FirebaseProjectID   string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredsBase64 string `env:"FIREBASE_CREDENTIALS_BASE64"`
	FirebaseCredsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseWebAPIKey   string `env:"FIREBASE_WEB_API_KEY"`
	FirebaseAuthDomain  string `env:"FIREBASE_AUTH_DOMAIN"`

	// Collaborators
	ImgBBKey       string `env:"IMGBB_API_KEY"`
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPass       string `env:"SMTP_PASS"`
	SMTPFrom       string `env:"SMTP_FROM"`
	AdminEmail     string `env:"ADMIN_EMAIL"`

	// Activation payment instructions shown to users
	ActivationFee    float64 `env:"ACTIVATION_FEE" envDefault:"0"`
	ActivationNumber string  `env:"ACTIVATION_NUMBER"`

	// Ledger rules
	SignupBonus       float64 `env:"SIGNUP_BONUS" envDefault:"10"`
	ReferralBonus     float64 `env:"REFERRAL_BONUS" envDefault:"10"`
	WithdrawMinimum   float64 `env:"WITHDRAW_MINIMUM" envDefault:"50"`
	EligibleBalance   float64 `env:"WITHDRAW_ELIGIBLE_BALANCE" envDefault:"250"`
	EligibleReferrals int     `env:"WITHDRAW_ELIGIBLE_REFERRALS" envDefault:"3"`
	TaskCandidates    int     `env:"TASK_CANDIDATE_LIMIT" envDefault:"10"`
	TaskVisible       int     `env:"TASK_VISIBLE_LIMIT" envDefault:"2"`

	// Cleanup
	CleanupRetention time.Duration `env:"CLEANUP_RETENTION" envDefault:"360h"`
	CleanupBatch     int           `env:"CLEANUP_BATCH" envDefault:"50"`
	CleanupCron      string        `env:"CLEANUP_CRON"`
}

// Load reads .env when present and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SessionDriver != "redis" && c.SessionDriver != "memory" {
		return fmt.Errorf("unknown SESSION_DRIVER %q", c.SessionDriver)
	}
	if len(c.SecretKey) < 16 {
		return fmt.Errorf("SECRET_KEY must be at least 16 characters")
	}
	if !strings.HasPrefix(c.AdminRoute, "/") || c.AdminRoute == "/" {
		return fmt.Errorf("ADMIN_ROUTE must be a path like /admin")
	}
	c.AdminRoute = strings.TrimSuffix(c.AdminRoute, "/")
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.CleanupBatch <= 0 {
		return fmt.Errorf("CLEANUP_BATCH must be positive")
	}
	return nil
}

// FirebaseWebConfig is the public client configuration served on /auth.
func (c *Config) FirebaseWebConfig() map[string]string {
	return map[string]string{
		"apiKey":     c.FirebaseWebAPIKey,
		"authDomain": c.FirebaseAuthDomain,
		"projectId":  c.FirebaseProjectID,
	}
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.AdminEmail != ""
}
