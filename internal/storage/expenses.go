package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spendlog/internal/core"
)

const expenseColumns = "id, owner_id, amount_cents, category, date, description, receipt_url, created_at, updated_at"

// CreateExpense inserts e for ownerID and returns it with its assigned id
// and timestamps.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	now := r.now()
	e.ID = uuid.NewString()
	e.OwnerID = ownerID
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Amount.Cents, string(e.Category), formatTime(e.Date.Time),
		e.Description, nullableString(e.ReceiptURL), formatTime(now), formatTime(now))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"owner_id", ownerID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// GetExpense returns ErrNotFound when the id does not exist for ownerID.
func (r *SQLiteRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns one page of matches, most recent first, with the
// pre-pagination total.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) (core.ExpensePage, error) {
	if f.Limit <= 0 {
		f.Limit = core.DefaultPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	q := buildExpenseQuery(ownerID, f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`+q.where(), q.args...).Scan(&total); err != nil {
		return core.ExpensePage{}, fmt.Errorf("count expenses: %w", err)
	}

	args := append(append([]any{}, q.args...), f.Limit, f.Offset())
	expenses, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses`+q.where()+
			` ORDER BY date DESC, created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return core.ExpensePage{}, err
	}

	return core.ExpensePage{
		Expenses: expenses,
		Total:    total,
		Page:     f.Page,
		Pages:    core.PageCount(total, f.Limit),
	}, nil
}

// ExportExpenses returns every match for the filter, ignoring paging.
func (r *SQLiteRepository) ExportExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) ([]core.Expense, error) {
	q := buildExpenseQuery(ownerID, f)
	return r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses`+q.where()+` ORDER BY date DESC, created_at DESC, id DESC`, q.args...)
}

// UpdateExpense replaces every mutable field of an existing expense.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		    SET amount_cents = ?, category = ?, date = ?, description = ?, receipt_url = ?, updated_at = ?
		  WHERE id = ? AND owner_id = ?`,
		e.Amount.Cents, string(e.Category), formatTime(e.Date.Time), e.Description,
		nullableString(e.ReceiptURL), formatTime(now), e.ID, ownerID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	if n == 0 {
		return core.Expense{}, ErrNotFound
	}
	return r.GetExpense(ctx, ownerID, e.ID)
}

// DeleteExpense removes the expense if present. Deleting a missing id is
// not an error; deleted reports whether a row went away.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete expense %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return n > 0, nil
}

// SummarizeExpenses totals the filter's matches overall and per category.
// Categories without matches are reported with zero amounts so the result
// always lists the full set.
func (r *SQLiteRepository) SummarizeExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) (core.ExpenseSummary, error) {
	q := buildExpenseQuery(ownerID, f)
	var (
		summary core.ExpenseSummary
		byCat   = map[core.Category]core.CategoryAmount{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var total int64
		err := r.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM expenses`+q.where(), q.args...).
			Scan(&total, &summary.Count)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		summary.Total = core.Money{Cents: total}
		return nil
	})
	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx,
			`SELECT category, SUM(amount_cents), COUNT(*) FROM expenses`+q.where()+` GROUP BY category`, q.args...)
		if err != nil {
			return fmt.Errorf("sum by category: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				cat   string
				cents int64
				count int
			)
			if err := rows.Scan(&cat, &cents, &count); err != nil {
				return fmt.Errorf("scan category sum: %w", err)
			}
			byCat[core.Category(cat)] = core.CategoryAmount{
				Category: core.Category(cat),
				Amount:   core.Money{Cents: cents},
				Count:    count,
			}
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseSummary{}, err
	}

	for _, c := range core.Categories {
		ca, ok := byCat[c]
		if !ok {
			ca = core.CategoryAmount{Category: c}
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	return summary, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                          core.Expense
		category                   string
		date, createdAt, updatedAt string
		receipt                    sql.NullString
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &e.Amount.Cents, &category, &date,
		&e.Description, &receipt, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	if receipt.Valid {
		v := receipt.String
		e.ReceiptURL = &v
	}

	var err error
	if e.Date.Time, err = parseTime(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
