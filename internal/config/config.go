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
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendREST   = "rest"

	EngineRemote = "remote"
	EngineLocal  = "local"
)

var (
	validBackends = []string{BackendMemory, BackendSQLite, BackendMongo, BackendREST}
	validEngines  = []string{EngineRemote, EngineLocal}
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	LogLevel string

	// Storage selection for the expense collection
	DataBackend  string
	SQLiteDBPath string
	MongoURI     string
	MongoDBName  string

	// Chat engine: remote delegates to the expense backend, local runs the rule engine in-process
	ChatEngine string

	// Expense backend REST API
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Money rendering
	CurrencySymbol string
	CurrencyLocale string

	// Chat sessions
	SessionTTL  time.Duration
	MaxSessions int

	NotifyPollInterval time.Duration

	TelegramToken string
}

func Load() *Config {
	dataBackend := getEnv("DATA_BACKEND", BackendREST)
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		DataBackend:  dataBackend,
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/famspend.db"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "famspend"),

		ChatEngine: getEnv("CHAT_ENGINE", defaultEngine(dataBackend)),

		BackendURL:     getEnv("BACKEND_URL", "http://localhost:5000/api"),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "famspend"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_notifications"),

		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		CurrencyLocale: getEnv("CURRENCY_LOCALE", "en"),

		SessionTTL:  getEnvDuration("SESSION_TTL", 30*time.Minute),
		MaxSessions: getEnvInt("MAX_SESSIONS", 1000),

		NotifyPollInterval: getEnvDuration("NOTIFY_POLL_INTERVAL", 10*time.Second),

		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
	}
}

// NeedsBackendAPI reports whether any component talks to the REST backend.
func (c *Config) NeedsBackendAPI() bool {
	return c.DataBackend == BackendREST || c.ChatEngine == EngineRemote
}

// TelegramSharesBackendToken reports whether Telegram turns reach the REST
// backend. The backend then records every chat member as the BACKEND_TOKEN
// account.
func (c *Config) TelegramSharesBackendToken() bool {
	return c.TelegramToken != "" && c.NeedsBackendAPI()
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if !slices.Contains(validEngines, c.ChatEngine) {
		errors = append(errors, fmt.Sprintf("invalid chat engine '%s': must be one of %v", c.ChatEngine, validEngines))
	}

	// The remote engine records through the REST backend; any other store
	// would never see those expenses.
	if c.ChatEngine == EngineRemote && c.DataBackend != BackendREST && slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("chat engine 'remote' requires data backend 'rest', got '%s': set CHAT_ENGINE=local", c.DataBackend))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.DataBackend == BackendMongo {
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDBName == "" {
			errors = append(errors, "MONGO_DB_NAME is required when using mongo backend")
		}
	}

	if c.NeedsBackendAPI() {
		if parsed, err := url.Parse(c.BackendURL); err != nil || c.BackendURL == "" {
			errors = append(errors, fmt.Sprintf("invalid backend URL '%s'", c.BackendURL))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid backend URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}
	if c.BackendTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid backend timeout %v: must be positive", c.BackendTimeout))
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

	if c.CurrencySymbol == "" {
		errors = append(errors, "currency symbol cannot be empty")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}
	if c.NotifyPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid notification poll interval %v: must be at least 1 second", c.NotifyPollInterval))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// defaultEngine keeps chat on the same store as the expense collection.
func defaultEngine(dataBackend string) string {
	if dataBackend == BackendREST {
		return EngineRemote
	}
	return EngineLocal
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
