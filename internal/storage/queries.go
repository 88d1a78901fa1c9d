package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Expense mirrors a row of the expenses table. Times are unix nanoseconds.
type Expense struct {
	ID          string
	OwnerUserID string
	OwnerName   string
	FamilyID    string
	AmountMinor int64
	Category    string
	Description string
	OccurredAt  int64
	CreatedAt   int64
}

const expenseColumns = `id, owner_user_id, owner_name, family_id, amount_minor, category, description, occurred_at, created_at`

const createExpense = `INSERT INTO expenses (` + expenseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams Expense

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.ID,
		arg.OwnerUserID,
		arg.OwnerName,
		arg.FamilyID,
		arg.AmountMinor,
		arg.Category,
		arg.Description,
		arg.OccurredAt,
		arg.CreatedAt,
	)
	var i Expense
	err := scanExpense(row, &i)
	return i, err
}

const listExpensesByOwner = `SELECT ` + expenseColumns + ` FROM expenses
WHERE owner_user_id = ?
ORDER BY occurred_at DESC, created_at DESC`

func (q *Queries) ListExpensesByOwner(ctx context.Context, ownerUserID string) ([]Expense, error) {
	return q.list(ctx, listExpensesByOwner, ownerUserID)
}

const listExpensesByFamily = `SELECT ` + expenseColumns + ` FROM expenses
WHERE family_id = ?
ORDER BY occurred_at DESC, created_at DESC`

func (q *Queries) ListExpensesByFamily(ctx context.Context, familyID string) ([]Expense, error) {
	return q.list(ctx, listExpensesByFamily, familyID)
}

const familyTotal = `SELECT CAST(COALESCE(SUM(amount_minor), 0) AS INTEGER) FROM expenses WHERE family_id = ?`

func (q *Queries) FamilyTotal(ctx context.Context, familyID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, familyTotal, familyID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

func (q *Queries) list(ctx context.Context, query string, arg string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := scanExpense(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner, i *Expense) error {
	return s.Scan(
		&i.ID,
		&i.OwnerUserID,
		&i.OwnerName,
		&i.FamilyID,
		&i.AmountMinor,
		&i.Category,
		&i.Description,
		&i.OccurredAt,
		&i.CreatedAt,
	)
}
