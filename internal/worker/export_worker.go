package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/sheets"
	"spendlog/internal/storage"
)

// ExpenseReader loads the current state of an expense.
type ExpenseReader interface {
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
}

// ExportWorker mirrors expense events into a spreadsheet. Events carry only
// ids, so the row is always rebuilt from the database; a replayed or
// out-of-order event converges on the stored state.
type ExportWorker struct {
	repo     ExpenseReader
	exporter sheets.ExpenseExporter
}

func NewExportWorker(repo ExpenseReader, exporter sheets.ExpenseExporter) *ExportWorker {
	return &ExportWorker{repo: repo, exporter: exporter}
}

// HandleEvent applies one event. Returned errors cause redelivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	logger := slog.With("type", event.Type, "expense_id", event.ExpenseID)

	if event.Type == amqp.ExpenseDeleted {
		return w.remove(ctx, logger, event.ExpenseID)
	}

	e, err := w.repo.GetExpense(ctx, event.OwnerID, event.ExpenseID)
	if errors.Is(err, storage.ErrNotFound) {
		// deleted after the event was published
		return w.remove(ctx, logger, event.ExpenseID)
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	e.OwnerID = event.OwnerID

	if err := w.exporter.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}
	logger.InfoContext(ctx, "Expense exported")
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, logger *slog.Logger, id string) error {
	if err := w.exporter.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("remove exported expense: %w", err)
	}
	logger.InfoContext(ctx, "Exported expense removed")
	return nil
}
