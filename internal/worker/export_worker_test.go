package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/storage"
)

type fakeReader struct {
	expenses map[string]core.Expense
	err      error
}

func (r *fakeReader) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	if r.err != nil {
		return core.Expense{}, r.err
	}
	e, ok := r.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func TestExportWorker_CreatedThenDeleted(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{expenses: map[string]core.Expense{
		"e1": {ID: "e1", OwnerID: "u1", Amount: core.Money{Cents: 500}, Category: core.Food, Date: core.NewDate(2024, 5, 1)},
	}}
	out := memory.New()
	w := NewExportWorker(reader, out)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.ExpenseCreated, "e1", "u1")))
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "5.00", out.Rows()[0][4])

	// replay is harmless
	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.ExpenseUpdated, "e1", "u1")))
	assert.Equal(t, 1, out.Len())

	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.ExpenseDeleted, "e1", "u1")))
	assert.Equal(t, 0, out.Len())
}

func TestExportWorker_MissingRowIsRemoved(t *testing.T) {
	ctx := context.Background()
	out := memory.New()
	require.NoError(t, out.UpsertExpense(ctx, core.Expense{ID: "gone"}))

	w := NewExportWorker(&fakeReader{expenses: map[string]core.Expense{}}, out)
	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseEvent(amqp.ExpenseUpdated, "gone", "u1")))
	assert.Equal(t, 0, out.Len())
}

func TestExportWorker_StorageErrorRequeues(t *testing.T) {
	w := NewExportWorker(&fakeReader{err: errors.New("disk on fire")}, memory.New())
	err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(amqp.ExpenseCreated, "e1", "u1"))
	assert.Error(t, err)
}
