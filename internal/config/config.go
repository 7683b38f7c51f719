package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// Generative language API
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string
	GeminiTimeout  time.Duration

	ClassifierCacheSize int
	ClassifierCacheTTL  time.Duration
	AssistantMaxEntries int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	SyncInterval             time.Duration

	// Sign-in
	AuthMode                string
	GoogleOAuthClientID     string
	GoogleOAuthClientSecret string
	GoogleOAuthRedirectURL  string
	SessionTTL              time.Duration
	SecureCookies           bool
}

var (
	validBackends  = []string{"memory", "sqlite", "postgres"}
	validAuthModes = []string{"google", "dev"}
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	v.SetDefault("DATA_BACKEND", "sqlite")
	v.SetDefault("SQLITE_DB_PATH", "./data/fintrack.db")
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GEMINI_TIMEOUT", 30*time.Second)

	v.SetDefault("CLASSIFIER_CACHE_SIZE", 500)
	v.SetDefault("CLASSIFIER_CACHE_TTL", 24*time.Hour)
	v.SetDefault("ASSISTANT_MAX_ENTRIES", 200)

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "fintrack")
	v.SetDefault("AMQP_QUEUE", "ledger_entries")

	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("SYNC_INTERVAL", 30*time.Second)

	v.SetDefault("AUTH_MODE", "google")
	v.SetDefault("GOOGLE_OAUTH_CLIENT_ID", "")
	v.SetDefault("GOOGLE_OAUTH_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("SECURE_COOKIES", false)
}

// Load reads the configuration from the environment.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance, so
// callers can layer flags or config files over the environment.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),

		DataBackend:  strings.ToLower(v.GetString("DATA_BACKEND")),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),
		DatabaseURL:  v.GetString("DATABASE_URL"),

		GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
		GeminiModel:    v.GetString("GEMINI_MODEL"),
		GeminiEndpoint: v.GetString("GEMINI_ENDPOINT"),
		GeminiTimeout:  v.GetDuration("GEMINI_TIMEOUT"),

		ClassifierCacheSize: v.GetInt("CLASSIFIER_CACHE_SIZE"),
		ClassifierCacheTTL:  v.GetDuration("CLASSIFIER_CACHE_TTL"),
		AssistantMaxEntries: v.GetInt("ASSISTANT_MAX_ENTRIES"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		SyncInterval:             v.GetDuration("SYNC_INTERVAL"),

		AuthMode:                strings.ToLower(v.GetString("AUTH_MODE")),
		GoogleOAuthClientID:     v.GetString("GOOGLE_OAUTH_CLIENT_ID"),
		GoogleOAuthClientSecret: v.GetString("GOOGLE_OAUTH_CLIENT_SECRET"),
		GoogleOAuthRedirectURL:  v.GetString("GOOGLE_OAUTH_REDIRECT_URL"),
		SessionTTL:              v.GetDuration("SESSION_TTL"),
		SecureCookies:           v.GetBool("SECURE_COOKIES"),
	}
}

// Validate validates the configuration and returns an error if invalid.
// A missing GEMINI_API_KEY is not an error: classification and chat degrade
// to their fallbacks.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	}

	if c.GeminiModel == "" {
		errors = append(errors, "GEMINI_MODEL cannot be empty")
	}
	if u, err := url.Parse(c.GeminiEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid GEMINI_ENDPOINT '%s': must be an absolute URL", c.GeminiEndpoint))
	}
	if c.GeminiTimeout < time.Second || c.GeminiTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid Gemini timeout %v: must be between 1s and 5m", c.GeminiTimeout))
	}
	if c.ClassifierCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid classifier cache size %d: must not be negative", c.ClassifierCacheSize))
	}
	if c.AssistantMaxEntries < 0 {
		errors = append(errors, fmt.Sprintf("invalid assistant max entries %d: must not be negative", c.AssistantMaxEntries))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validAuthModes, c.AuthMode) {
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be one of %v", c.AuthMode, validAuthModes))
	}
	if c.AuthMode == "google" {
		if c.GoogleOAuthClientID == "" || c.GoogleOAuthClientSecret == "" {
			errors = append(errors, "GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET are required when AUTH_MODE is google")
		}
		if c.GoogleOAuthRedirectURL == "" {
			errors = append(errors, "GOOGLE_OAUTH_REDIRECT_URL is required when AUTH_MODE is google")
		}
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the sheets mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	hasJSON := c.GoogleServiceAccountJSON != ""
	hasFile := c.GoogleServiceAccountFile != ""
	if !hasJSON && !hasFile {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the worker")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if c.SyncInterval < time.Second || c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be between 1 second and 24 hours", c.SyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
