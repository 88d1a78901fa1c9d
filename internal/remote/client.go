// Package remote talks to the family expense backend over REST.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/store"
)

// ErrNotSupported is returned when the backend does not expose an endpoint.
var ErrNotSupported = errors.New("endpoint not supported by backend")

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
	lists   singleflight.Group
}

func New(cfg Config, logger *log.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.WithComponent(log.ComponentRemote),
	}
}

type tokenKey struct{}

// WithToken makes calls made with ctx use token instead of the configured one.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) tokenFor(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		return t
	}
	return c.token
}

// Create implements store.ExpenseWriter via POST /expenses.
func (c *Client) Create(ctx context.Context, in store.NewExpense) (core.Expense, error) {
	body := expenseInput{
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount.Major(),
		Category:    in.Category,
	}
	if !in.OccurredAt.IsZero() {
		body.Date = in.OccurredAt.Format(time.RFC3339)
	}
	var out ExpenseDTO
	if err := c.do(ctx, http.MethodPost, "/expenses", body, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e := out.Expense()
	if e.OwnerUserID == "" {
		e.OwnerUserID = in.Owner.UserID
	}
	return e, nil
}

// ListExpenses implements store.ExpenseLister via GET /expenses or /expenses/family.
// Concurrent identical calls share one request.
func (c *Client) ListExpenses(ctx context.Context, scope store.Scope) ([]core.Expense, error) {
	path := "/expenses"
	if scope.Family {
		path = "/expenses/family"
	}
	key := path + "|" + c.tokenFor(ctx)

	v, err, shared := c.lists.Do(key, func() (interface{}, error) {
		var dtos []ExpenseDTO
		if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
			return nil, err
		}
		out := make([]core.Expense, 0, len(dtos))
		for _, d := range dtos {
			out = append(out, d.Expense())
		}
		store.SortNewestFirst(out)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if shared {
		c.logger.DebugContext(ctx, "Shared in-flight expense list", log.FieldPath, path)
	}
	// Callers may reslice; hand each its own copy.
	return append([]core.Expense(nil), v.([]core.Expense)...), nil
}

// ChatExpense sends a free-text expense to POST /chat/expense.
func (c *Client) ChatExpense(ctx context.Context, message string) (*ChatExpenseResponse, error) {
	var out ChatExpenseResponse
	if err := c.do(ctx, http.MethodPost, "/chat/expense", chatRequest{Message: message}, &out); err != nil {
		return nil, fmt.Errorf("chat expense: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("chat expense: %w", &core.BackendError{Status: http.StatusOK, Message: out.Message})
	}
	return &out, nil
}

// ChatQuery sends a question to POST /chat/query. Backends without the
// endpoint yield ErrNotSupported.
func (c *Client) ChatQuery(ctx context.Context, message string) (*ChatQueryResponse, error) {
	var out ChatQueryResponse
	err := c.do(ctx, http.MethodPost, "/chat/query", chatRequest{Message: message}, &out)
	var be *core.BackendError
	if errors.As(err, &be) && (be.Status == http.StatusNotFound || be.Status == http.StatusMethodNotAllowed) {
		return nil, ErrNotSupported
	}
	if err != nil {
		return nil, fmt.Errorf("chat query: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("chat query: %w", &core.BackendError{Status: http.StatusOK, Message: out.Message})
	}
	return &out, nil
}

// UnreadCount returns the number of unseen notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out unreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return out.Count, nil
}

// Ping checks the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/expenses", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Backend request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", core.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return core.ErrAuthExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &core.BackendError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return ""
}
