package backend

import (
	"fmt"
	"time"

	"famspend/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	Engine EngineType

	SQLiteDBPath string

	MongoURI    string
	MongoDBName string

	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	// optional; empty disables expense announcements
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CurrencySymbol string
	CurrencyLocale string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:   BackendType(appConfig.DataBackend),
		Engine: EngineType(appConfig.ChatEngine),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		MongoURI:    appConfig.MongoURI,
		MongoDBName: appConfig.MongoDBName,

		BackendURL:     appConfig.BackendURL,
		BackendToken:   appConfig.BackendToken,
		BackendTimeout: appConfig.BackendTimeout,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		CurrencySymbol: appConfig.CurrencySymbol,
		CurrencyLocale: appConfig.CurrencyLocale,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Engine.IsValid() {
		return fmt.Errorf("invalid chat engine: %s", c.Engine)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case MongoBackend:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return fmt.Errorf("MongoDB URI and database name are required for mongo backend")
		}
	}

	if c.Engine == RemoteEngine && c.Type != RESTBackend {
		return fmt.Errorf("remote chat engine records through the REST backend and cannot run over the %s backend", c.Type)
	}
	if c.UsesREST() && c.BackendURL == "" {
		return fmt.Errorf("backend URL is required for the rest backend or remote engine")
	}
	return nil
}

// UsesREST reports whether the REST client is needed.
func (c Config) UsesREST() bool {
	return c.Type == RESTBackend || c.Engine == RemoteEngine
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, MongoBackend, RESTBackend}
}
