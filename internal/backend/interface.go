package backend

import (
	"context"

	"famspend/internal/chat"
	"famspend/internal/remote"
	"famspend/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Checker is anything readiness can ping.
type Checker interface {
	Ping(ctx context.Context) error
}

// Result is everything the binaries need from the data layer.
type Result struct {
	Store  store.ExpenseStore
	Engine chat.Engine
	// Remote is set whenever the REST backend is configured; the
	// notification poller needs it even with a local store.
	Remote  *remote.Client
	Checks  map[string]Checker
	Cleanup CleanupFunc
}

// Factory builds the data layer from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// BackendType selects where expenses live.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	MongoBackend  BackendType = "mongo"
	RESTBackend   BackendType = "rest"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, MongoBackend, RESTBackend:
		return true
	default:
		return false
	}
}

// EngineType selects who parses chat text.
type EngineType string

const (
	RemoteEngine EngineType = "remote"
	LocalEngine  EngineType = "local"
)

func (et EngineType) IsValid() bool {
	return et == RemoteEngine || et == LocalEngine
}
