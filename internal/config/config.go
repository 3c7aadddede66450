package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

const minJWTSecretLength = 32

// Config holds every setting the API reads at startup.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"energynexus"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"3"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"5"`

	SeedAccountsFile string `env:"SEED_ACCOUNTS_FILE"`

	Auth  AuthConfig
	OTP   OTPConfig
	SMTP  SMTPConfig
	SMS   SMSConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
}

type OTPConfig struct {
	TTL            time.Duration `env:"OTP_TTL" envDefault:"10m"`
	ResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s"`
	MaxPerWindow   int           `env:"OTP_MAX_PER_WINDOW" envDefault:"5"`
	Window         time.Duration `env:"OTP_WINDOW" envDefault:"15m"`

	// MaxVerifyAttempts caps code checks per account and purpose within one
	// OTP_TTL. Zero disables the cap.
	MaxVerifyAttempts int `env:"OTP_MAX_VERIFY_ATTEMPTS" envDefault:"5"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

type SMSConfig struct {
	GatewayURL string `env:"SMS_GATEWAY_URL"`
	APIKey     string `env:"SMS_API_KEY"`
	SenderID   string `env:"SMS_SENDER_ID" envDefault:"ENRGNX"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

// SeedAccount describes an operator-provisioned account created at startup.
type SeedAccount struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Pincode  string `json:"pincode"`
}

// Load reads the environment (and .env via godotenv) into a Config and
// rejects configurations the service must not start with.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI environment variable is required when STORE_DRIVER=mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	if c.OTP.MaxVerifyAttempts < 0 {
		return errors.New("OTP_MAX_VERIFY_ATTEMPTS cannot be negative")
	}
	if c.Auth.PasswordMinLength < 6 {
		return errors.New("PASSWORD_MIN_LENGTH must be at least 6")
	}
	for i, origin := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadSeedAccounts reads the JSON array of default accounts. An empty path
// means no accounts are seeded.
func LoadSeedAccounts(path string) ([]SeedAccount, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed accounts: %w", err)
	}
	var accounts []SeedAccount
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode seed accounts: %w", err)
	}
	return accounts, nil
}
