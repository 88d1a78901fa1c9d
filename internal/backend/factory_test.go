package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/chat"
	"famspend/internal/config"
	"famspend/internal/core"
	"famspend/internal/remote"
	"famspend/internal/store"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory local", Config{Type: MemoryBackend, Engine: LocalEngine}, false},
		{"unknown backend", Config{Type: "postgres", Engine: LocalEngine}, true},
		{"unknown engine", Config{Type: MemoryBackend, Engine: "llm"}, true},
		{"sqlite without path", Config{Type: SQLiteBackend, Engine: LocalEngine}, true},
		{"mongo without uri", Config{Type: MongoBackend, Engine: LocalEngine, MongoDBName: "x"}, true},
		{"remote engine without url", Config{Type: RESTBackend, Engine: RemoteEngine}, true},
		{"remote engine over memory", Config{Type: MemoryBackend, Engine: RemoteEngine, BackendURL: "http://localhost:5000/api"}, true},
		{"remote engine over sqlite", Config{Type: SQLiteBackend, Engine: RemoteEngine, SQLiteDBPath: "x.db", BackendURL: "http://localhost:5000/api"}, true},
		{"local engine over rest", Config{Type: RESTBackend, Engine: LocalEngine, BackendURL: "http://localhost:5000/api"}, false},
		{"rest", Config{Type: RESTBackend, Engine: RemoteEngine, BackendURL: "http://localhost:5000/api"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    config.BackendMemory,
		ChatEngine:     config.EngineLocal,
		CurrencySymbol: "₹",
		CurrencyLocale: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, MemoryBackend, cfg.Type)
	assert.False(t, cfg.UsesREST())
}

func TestFactory_MemoryLocal(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type: MemoryBackend, Engine: LocalEngine, CurrencySymbol: "₹", CurrencyLocale: "en",
	})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.Nil(t, res.Remote)
	assert.IsType(t, &chat.LocalEngine{}, res.Engine)

	id := core.Identity{UserID: "u1", FamilyID: "f1"}
	out, err := res.Engine.LogExpense(context.Background(), id, "250 for lunch")
	require.NoError(t, err)
	assert.Equal(t, "Logged ₹250 under Food", out.Message)

	list, err := res.Store.ListExpenses(context.Background(), store.ScopeFor(id))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFactory_SQLite(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           SQLiteBackend,
		Engine:         LocalEngine,
		SQLiteDBPath:   filepath.Join(t.TempDir(), "famspend.db"),
		CurrencySymbol: "₹",
	})
	require.NoError(t, err)
	defer res.Cleanup()

	require.Contains(t, res.Checks, "sqlite")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, res.Checks["sqlite"].Ping(ctx))
}

func TestFactory_RemoteEngineCreatesClient(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           RESTBackend,
		Engine:         RemoteEngine,
		BackendURL:     "http://127.0.0.1:1/api",
		BackendTimeout: time.Second,
		CurrencySymbol: "₹",
	})
	require.NoError(t, err)
	defer res.Cleanup()

	require.NotNil(t, res.Remote)
	assert.IsType(t, &chat.RemoteEngine{}, res.Engine)
	assert.Contains(t, res.Checks, "backend")
}

func TestFactory_RejectsRemoteEngineOverLocalStore(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           MemoryBackend,
		Engine:         RemoteEngine,
		BackendURL:     "http://127.0.0.1:1/api",
		BackendTimeout: time.Second,
		CurrencySymbol: "₹",
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "remote chat engine")
}

func TestFactory_RemoteEngineRefreshSeesChatRecords(t *testing.T) {
	var (
		mu       sync.Mutex
		recorded []remote.ExpenseDTO
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/chat/expense":
			dto := remote.ExpenseDTO{ID: "e1", Description: "500 for food", Amount: 500, Category: "Food", Date: time.Now()}
			recorded = append(recorded, dto)
			_ = json.NewEncoder(w).Encode(remote.ChatExpenseResponse{Success: true, Message: "Added ₹500", Expense: &dto})
		case r.Method == http.MethodGet && r.URL.Path == "/expenses":
			_ = json.NewEncoder(w).Encode(recorded)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           RESTBackend,
		Engine:         RemoteEngine,
		BackendURL:     srv.URL,
		BackendTimeout: time.Second,
		CurrencySymbol: "₹",
	})
	require.NoError(t, err)
	defer res.Cleanup()

	sessions := chat.NewManager(res.Engine, res.Store, chat.ManagerConfig{TTL: time.Hour, MaxSessions: 4}, nil)
	session := sessions.Create(core.Identity{UserID: "u1", UserName: "Asha"})

	_, err = session.Submit(context.Background(), "500 for food")
	require.NoError(t, err)
	require.Equal(t, 1, session.Stats().EntryCount)

	stats, err := session.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EntryCount)
	assert.Equal(t, int64(50000), stats.RunningTotal.Minor)
}
