// Package config loads the service configuration from environment
// variables. envconfig maps variables onto the Config struct; a local
// .env file is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds ALL application settings.
type Config struct {
	// --- HTTP ---
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout   time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout  time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	HTTPShutdownGrace time.Duration `envconfig:"HTTP_SHUTDOWN_GRACE" default:"10s"`
	// Behind the hosting proxy the client address comes from X-Forwarded-For,
	// taken TRUSTED_PROXY_HOPS entries from the right.
	TrustProxyHeaders bool `envconfig:"TRUST_PROXY_HEADERS" default:"false"`
	TrustedProxyHops  int  `envconfig:"TRUSTED_PROXY_HOPS" default:"1"`

	// --- Database ---
	// DATABASE_URL wins over the separate DB_* variables (hosted providers hand out a URL).
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"backoffice"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"require"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Amsterdam"`

	// --- Sessions ---
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionRememberTTL time.Duration `envconfig:"SESSION_REMEMBER_TTL" default:"720h"`

	// --- Feature toggles ---
	AuthTestLoginEnabled bool   `envconfig:"AUTH_TEST_LOGIN_ENABLED" default:"false"`
	AuthTestLoginEmail   string `envconfig:"AUTH_TEST_LOGIN_EMAIL"`
	DebugEndpointEnabled bool   `envconfig:"DEBUG_ENDPOINT_ENABLED" default:"false"`

	// --- Rate Limiting ---
	RateLimitLoginRequests    int           `envconfig:"RATE_LIMIT_LOGIN_REQUESTS" default:"10"`
	RateLimitLoginWindow      time.Duration `envconfig:"RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	RateLimitContactRequests  int           `envconfig:"RATE_LIMIT_CONTACT_REQUESTS" default:"5"`
	RateLimitContactWindow    time.Duration `envconfig:"RATE_LIMIT_CONTACT_WINDOW" default:"1h"`
	RateLimitPostcodeRequests int           `envconfig:"RATE_LIMIT_POSTCODE_REQUESTS" default:"60"`
	RateLimitPostcodeWindow   time.Duration `envconfig:"RATE_LIMIT_POSTCODE_WINDOW" default:"1m"`
	RateLimitAPIRequests      int           `envconfig:"RATE_LIMIT_API_REQUESTS" default:"300"`
	RateLimitAPIWindow        time.Duration `envconfig:"RATE_LIMIT_API_WINDOW" default:"1m"`
	// Empty means in-process counters.
	RateLimitRedisURL string `envconfig:"RATE_LIMIT_REDIS_URL"`

	// --- Company registry ---
	CompanyAPIURL     string        `envconfig:"COMPANY_API_URL" default:"https://api.kvk.nl/api/v2"`
	CompanyAPIKey     string        `envconfig:"COMPANY_API_KEY"`
	CompanyAPITimeout time.Duration `envconfig:"COMPANY_API_TIMEOUT" default:"5s"`
	CompanyAPIRPS     float64       `envconfig:"COMPANY_API_RPS" default:"5"`

	// --- Telegram notifications (optional) ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`

	// --- Attachments / quotes ---
	AttachmentMaxBytes int64 `envconfig:"ATTACHMENT_MAX_BYTES" default:"10485760"`
	QuoteDefaultVAT    int   `envconfig:"QUOTE_DEFAULT_VAT" default:"21"`
	QuoteValidityDays  int   `envconfig:"QUOTE_VALIDITY_DAYS" default:"30"`
}

// IsProduction reports APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// TelegramEnabled reports whether lead notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// ProxyHops is the number of X-Forwarded-For entries appended by trusted
// proxies, or zero when proxy headers are not trusted.
func (c *Config) ProxyHops() int {
	if !c.TrustProxyHeaders {
		return 0
	}
	return c.TrustedProxyHops
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.DBPassword == "" {
		return fmt.Errorf("DATABASE_URL of DB_PASSWORD moet gezet zijn")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("ongeldige DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.SessionTTL <= 0 || c.SessionRememberTTL < c.SessionTTL {
		return fmt.Errorf("SESSION_TTL moet > 0 zijn en SESSION_REMEMBER_TTL >= SESSION_TTL")
	}
	if c.AuthTestLoginEnabled {
		if c.IsProduction() {
			return fmt.Errorf("AUTH_TEST_LOGIN_ENABLED mag niet aan staan in productie")
		}
		if c.AuthTestLoginEmail == "" {
			return fmt.Errorf("AUTH_TEST_LOGIN_EMAIL is verplicht als test-login aan staat")
		}
	}
	for name, v := range map[string]int{
		"RATE_LIMIT_LOGIN_REQUESTS":    c.RateLimitLoginRequests,
		"RATE_LIMIT_CONTACT_REQUESTS":  c.RateLimitContactRequests,
		"RATE_LIMIT_POSTCODE_REQUESTS": c.RateLimitPostcodeRequests,
		"RATE_LIMIT_API_REQUESTS":      c.RateLimitAPIRequests,
	} {
		if v <= 0 {
			return fmt.Errorf("%s moet > 0 zijn", name)
		}
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN en TELEGRAM_CHAT_ID moeten samen gezet worden")
	}
	if c.TrustProxyHeaders && c.TrustedProxyHops <= 0 {
		return fmt.Errorf("TRUSTED_PROXY_HOPS moet > 0 zijn als TRUST_PROXY_HEADERS aan staat")
	}
	if c.AttachmentMaxBytes <= 0 {
		return fmt.Errorf("ATTACHMENT_MAX_BYTES moet > 0 zijn")
	}
	if c.QuoteDefaultVAT < 0 || c.QuoteDefaultVAT > 100 {
		return fmt.Errorf("QUOTE_DEFAULT_VAT moet tussen 0 en 100 liggen")
	}
	return nil
}

// Load reads .env (if any) and the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("kan .env niet lezen: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("kan configuratie niet laden: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
