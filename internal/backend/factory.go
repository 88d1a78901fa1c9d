package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"famspend/internal/amqp"
	"famspend/internal/analytics"
	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/parser"
	"famspend/internal/recorder"
	"famspend/internal/remote"
	"famspend/internal/services"
	"famspend/internal/storage"
	"famspend/internal/storage/mongodb"
	"famspend/internal/store"
	"famspend/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend), now: time.Now}
}

// CreateBackend opens the expense store, the optional publisher and REST
// client, and assembles the chat engine over them.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Checks: make(map[string]Checker)}
	var cleanups []CleanupFunc
	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Result, error) {
		_ = res.Cleanup()
		return nil, err
	}

	if config.UsesREST() {
		res.Remote = remote.New(remote.Config{
			BaseURL: config.BackendURL,
			Token:   config.BackendToken,
			Timeout: config.BackendTimeout,
		}, f.logger)
		res.Checks["backend"] = res.Remote
	}

	base, cleanup, err := f.openStore(ctx, config, res)
	if err != nil {
		return fail(err)
	}
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}

	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = client
			cleanups = append(cleanups, client.Close)
		}
	}
	res.Store = services.NewExpenseService(base, publisher, f.logger)

	money := core.NewFormatter(config.CurrencySymbol, config.CurrencyLocale)
	responder := analytics.NewResponder(money, f.now)
	switch config.Engine {
	case RemoteEngine:
		res.Engine = chat.NewRemoteEngine(res.Remote, responder, f.logger)
	default:
		rec := recorder.New(parser.New(f.now), res.Store, money, f.logger)
		res.Engine = chat.NewLocalEngine(rec, responder, res.Store, f.logger)
	}

	f.logger.Info("Initialized backend",
		"data_backend", config.Type.String(),
		log.FieldEngine, string(config.Engine),
		"amqp_enabled", publisher != nil)
	return res, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config, res *Result) (store.ExpenseStore, CleanupFunc, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.NewWithClock(f.now), nil, nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Checks["sqlite"] = repo
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case MongoBackend:
		client, err := mongodb.Connect(mongodb.Config{URI: config.MongoURI, Database: config.MongoDBName})
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() error { return client.Close(context.Background()) }
		repo := mongodb.NewRepository(client.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = closeClient()
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		res.Checks["mongo"] = client
		f.logger.Info("Initialized MongoDB store", "database", config.MongoDBName)
		return repo, closeClient, nil

	case RESTBackend:
		return res.Remote, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
