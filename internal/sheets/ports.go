package sheets

import (
	"context"

	"spendlog/internal/core"
)

// ExpenseExporter mirrors expenses into an external spreadsheet. Both
// operations are idempotent so redelivered events are harmless.
type ExpenseExporter interface {
	// UpsertExpense writes the row for e, replacing an existing row with
	// the same id.
	UpsertExpense(ctx context.Context, e core.Expense) error
	// RemoveExpense clears the row for id. A missing row is not an error.
	RemoveExpense(ctx context.Context, id string) error
}

// Header is the column layout shared by every exporter.
var Header = []string{"ID", "Date", "Category", "Description", "Amount", "Receipt", "Owner"}

// Row renders e in Header order.
func Row(e core.Expense) []any {
	receipt := ""
	if e.HasReceipt() {
		receipt = *e.ReceiptURL
	}
	return []any{
		e.ID,
		e.Date.Format("2006-01-02"),
		e.Category.String(),
		e.Description,
		e.Amount.String(),
		receipt,
		e.OwnerID,
	}
}
