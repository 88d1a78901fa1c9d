package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/analytics"
	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/parser"
	"famspend/internal/recorder"
	"famspend/internal/store/memory"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type testEnv struct {
	server *Server
	store  *memory.Store
}

func newTestEnv(t *testing.T, engine chat.Engine, checks map[string]Checker) *testEnv {
	t.Helper()
	st := memory.NewWithClock(clock)
	if engine == nil {
		rec := recorder.New(parser.New(clock), st, nil, nil)
		engine = chat.NewLocalEngine(rec, analytics.NewResponder(nil, clock), st, nil)
	}
	sessions := chat.NewManager(engine, st, chat.ManagerConfig{TTL: time.Hour, MaxSessions: 10, Now: clock}, nil)
	s := NewServer(Options{RateLimitPerMinute: 1000}, Deps{
		Engine:   engine,
		Sessions: sessions,
		Store:    st,
		Checks:   checks,
		Now:      clock,
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &testEnv{server: s, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(HeaderUserID, user)
		req.Header.Set(HeaderUserName, "Asha")
		req.Header.Set(HeaderFamilyID, "f1")
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	env := newTestEnv(t, nil, map[string]Checker{
		"store": pingFunc(func(context.Context) error { return nil }),
	})
	rec := env.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env = newTestEnv(t, nil, map[string]Checker{
		"backend": pingFunc(func(context.Context) error { return errors.New("down") }),
	})
	rec = env.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "unavailable", body["status"])
}

func TestIdentityRequired(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/expenses", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[errorEnvelope](t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "unauthenticated", body.Code)
}

func TestChatExpense(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/chat/expense", chatRequest{Message: "500 rupees for food"}, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[chatExpenseResponse](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Logged ₹500 under Food", body.Message)
	require.NotNil(t, body.Expense)
	assert.Equal(t, 500.0, body.Expense.Amount)
	assert.Equal(t, "u1", body.Expense.User.ID)
	require.NotNil(t, body.FamilyTotal)
	assert.Equal(t, 500.0, *body.FamilyTotal)
	require.NotNil(t, body.ParsedData)
	assert.Equal(t, "Food", body.ParsedData.Category)
	assert.Equal(t, 1, env.store.Len())
}

func TestChatExpenseWithoutAmount(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/chat/expense", chatRequest{Message: "paid for dinner"}, "u1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorEnvelope](t, rec)
	assert.Equal(t, chat.CodeExtraction, body.Code)
	assert.Equal(t, 0, env.store.Len())
}

type failingEngine struct{ err error }

func (f failingEngine) LogExpense(context.Context, core.Identity, string) (*chat.LogResult, error) {
	return nil, f.err
}

func (f failingEngine) Query(context.Context, core.Identity, string) (*chat.QueryResult, error) {
	return nil, f.err
}

func TestChatErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{core.ErrNetwork, http.StatusBadGateway, chat.CodeNetwork},
		{core.ErrAuthExpired, http.StatusUnauthorized, chat.CodeAuthExpired},
		{&core.BackendError{Status: 500, Message: "boom"}, http.StatusBadGateway, chat.CodeBackend},
		{errors.New("weird"), http.StatusInternalServerError, chat.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			env := newTestEnv(t, failingEngine{err: tt.err}, nil)
			rec := env.do(t, http.MethodPost, "/chat/query", chatRequest{Message: "total"}, "u1")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[errorEnvelope](t, rec).Code)
		})
	}
}

func TestChatQuery(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.store.Seed(core.Expense{ID: "a", OwnerUserID: "u1", FamilyID: "f1", Amount: core.Money{Minor: 25000},
		Category: core.CategoryBills, Description: "wifi", OccurredAt: fixedNow})

	rec := env.do(t, http.MethodPost, "/chat/query", chatRequest{Message: "category breakdown"}, "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[chatQueryResponse](t, rec)
	require.NotNil(t, body.Context)
	assert.Equal(t, "categoryBreakdown", body.Context.Type)
	assert.Equal(t, 250.0, body.Context.Totals["Bills"])
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/chat/query", chatRequest{Message: "  "}, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/chat/sessions", nil, "u1")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[sessionView](t, rec)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, chat.WelcomeMessage, created.Messages[0].Text)

	path := "/chat/sessions/" + created.ID
	rec = env.do(t, http.MethodPost, path+"/messages", chatRequest{Message: "₹300 for groceries"}, "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[turnResponse](t, rec)
	assert.Equal(t, chat.RoleBot, turn.Message.Role)
	assert.Equal(t, 300.0, turn.Stats.RunningTotal)
	assert.Equal(t, "₹300", turn.Stats.Display.TodayTotal)

	rec = env.do(t, http.MethodPost, path+"/messages", chatRequest{Message: "what's my total?"}, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chat.RoleBot, decode[turnResponse](t, rec).Message.Role)

	rec = env.do(t, http.MethodGet, path, nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sessionView](t, rec).Messages, 5)

	rec = env.do(t, http.MethodGet, path, nil, "someone-else")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/refresh", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[statsView](t, rec).EntryCount)

	rec = env.do(t, http.MethodDelete, path, nil, "u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil, "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionErrorTurnIsNotHTTPError(t *testing.T) {
	env := newTestEnv(t, failingEngine{err: core.ErrNetwork}, nil)
	created := decode[sessionView](t, env.do(t, http.MethodPost, "/chat/sessions", nil, "u1"))

	rec := env.do(t, http.MethodPost, "/chat/sessions/"+created.ID+"/messages", chatRequest{Message: "500 food"}, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	turn := decode[turnResponse](t, rec)
	assert.Equal(t, chat.RoleError, turn.Message.Role)
	assert.Equal(t, "Network error. Please check your connection.", turn.Message.Text)
}

func TestExpenses(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/expenses", map[string]any{
		"description": "electricity",
		"amount":      1234.5,
		"category":    "bills",
		"date":        "2025-03-10",
	}, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[expenseView](t, rec)
	assert.Equal(t, 1234.5, created.Amount)
	assert.Equal(t, "Bills", created.Category)
	assert.Equal(t, "Asha", created.User.Name)

	env.store.Seed(core.Expense{ID: "other", OwnerUserID: "u2", FamilyID: "f1", Amount: core.Money{Minor: 100},
		Category: core.CategoryOthers, Description: "x", OccurredAt: fixedNow})

	rec = env.do(t, http.MethodGet, "/expenses", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]expenseView](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/expenses/family", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]expenseView](t, rec), 2)
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing amount", map[string]any{"description": "x"}},
		{"negative amount", map[string]any{"description": "x", "amount": -5}},
		{"empty description", map[string]any{"description": " ", "amount": 5}},
		{"bad date", map[string]any{"description": "x", "amount": 5, "date": "yesterday"}},
		{"unknown category", map[string]any{"description": "x", "amount": 5, "category": "Groceries"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/expenses", tt.body, "u1")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 0, env.store.Len())
}

func TestRateLimitAppliesToPost(t *testing.T) {
	st := memory.NewWithClock(clock)
	s := NewServer(Options{RateLimitPerMinute: 1}, Deps{Engine: failingEngine{err: core.ErrNetwork}, Store: st,
		Sessions: chat.NewManager(failingEngine{}, st, chat.ManagerConfig{TTL: time.Hour, MaxSessions: 1}, nil)})
	defer s.Shutdown(context.Background())
	env := &testEnv{server: s, store: st}

	env.do(t, http.MethodPost, "/chat/query", chatRequest{Message: "total"}, "u1")
	rec := env.do(t, http.MethodPost, "/chat/query", chatRequest{Message: "total"}, "u1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodGet, "/expenses", nil, "u1")
	assert.Equal(t, http.StatusOK, rec.Code, "GET is not rate limited")
}

func TestExpenseStats(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	day := func(n int) time.Time { return fixedNow.AddDate(0, 0, -n) }
	env.store.Seed(
		core.Expense{ID: "a", OwnerUserID: "u1", FamilyID: "f1", Amount: core.Money{Minor: 50000}, Category: core.CategoryFood, Description: "a", OccurredAt: day(0)},
		core.Expense{ID: "b", OwnerUserID: "u1", FamilyID: "f1", Amount: core.Money{Minor: 20000}, Category: core.CategoryTransport, Description: "b", OccurredAt: day(7)},
		core.Expense{ID: "c", OwnerUserID: "u1", FamilyID: "f1", Amount: core.Money{Minor: 10000}, Category: core.CategoryFood, Description: "c", OccurredAt: day(20)},
		core.Expense{ID: "d", OwnerUserID: "u2", FamilyID: "f1", Amount: core.Money{Minor: 5000}, Category: core.CategoryBills, Description: "d", OccurredAt: day(1)},
	)

	rec := env.do(t, http.MethodGet, "/expenses/stats", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	personal := decode[expenseStatsResponse](t, rec)
	assert.Equal(t, "personal", personal.View)
	assert.Equal(t, 800.0, personal.Total)
	assert.Equal(t, 700.0, personal.MonthTotal, "20 days back is February")
	assert.Equal(t, 700.0, personal.WeekTotal, "seven calendar days back is included")
	assert.Equal(t, 3, personal.Count)
	assert.Equal(t, map[string]float64{"Food": 600, "Transport": 200}, personal.CategoryBreakdown)
	assert.Len(t, personal.Expenses, 3)

	rec = env.do(t, http.MethodGet, "/expenses/stats?view=family", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	family := decode[expenseStatsResponse](t, rec)
	assert.Equal(t, "family", family.View)
	assert.Equal(t, 850.0, family.Total)
	assert.Equal(t, 750.0, family.WeekTotal)
	assert.Equal(t, 4, family.Count)
	assert.Equal(t, 50.0, family.CategoryBreakdown["Bills"])

	rec = env.do(t, http.MethodGet, "/expenses/stats?view=everyone", nil, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
