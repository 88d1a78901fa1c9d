package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local SQL expense store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements store.ExpenseWriter
func (r *SQLiteRepository) Create(ctx context.Context, in store.NewExpense) (core.Expense, error) {
	e, err := in.Build(uuid.NewString(), r.now())
	if err != nil {
		return core.Expense{}, err
	}

	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:          e.ID,
		OwnerUserID: e.OwnerUserID,
		OwnerName:   e.OwnerName,
		FamilyID:    e.FamilyID,
		AmountMinor: e.Amount.Minor,
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt.UnixNano(),
		CreatedAt:   e.CreatedAt.UnixNano(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	r.logger.DebugContext(ctx, "Expense saved to SQLite",
		log.FieldExpenseID, row.ID,
		log.FieldAmountMinor, row.AmountMinor,
		log.FieldCategory, row.Category)

	return toCore(row), nil
}

// ListExpenses implements store.ExpenseLister
func (r *SQLiteRepository) ListExpenses(ctx context.Context, scope store.Scope) ([]core.Expense, error) {
	var (
		rows []Expense
		err  error
	)
	if scope.Family {
		rows, err = r.queries.ListExpensesByFamily(ctx, scope.FamilyID)
	} else {
		rows, err = r.queries.ListExpensesByOwner(ctx, scope.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCore(row))
	}
	return out, nil
}

// FamilyTotal implements store.FamilyTotaler with one SUM query.
func (r *SQLiteRepository) FamilyTotal(ctx context.Context, familyID string) (core.Money, error) {
	total, err := r.queries.FamilyTotal(ctx, familyID)
	if err != nil {
		return core.Money{}, fmt.Errorf("family total: %w", err)
	}
	return core.Money{Minor: total}, nil
}

func toCore(row Expense) core.Expense {
	return core.Expense{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		OwnerName:   row.OwnerName,
		FamilyID:    row.FamilyID,
		Amount:      core.Money{Minor: row.AmountMinor},
		Category:    row.Category,
		Description: row.Description,
		OccurredAt:  time.Unix(0, row.OccurredAt).UTC(),
		CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
	}
}
