package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// ExpenseRepository is the persistence the expense service needs.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) (core.ExpensePage, error)
	ExportExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) (bool, error)
	SummarizeExpenses(ctx context.Context, ownerID string, f core.ExpenseFilter) (core.ExpenseSummary, error)
}

// EventPublisher announces expense changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.ExpenseEvent) error
	Close() error
}

var _ EventPublisher = (*amqp.Client)(nil)

// ExpenseService validates, persists and announces expense changes. Every
// call is scoped to the owner of the session.
type ExpenseService struct {
	repo      ExpenseRepository
	publisher EventPublisher
}

// NewExpenseService creates the service. publisher may be nil, in which
// case no events are sent.
func NewExpenseService(repo ExpenseRepository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateExpense validates the payload and stores it for owner.
func (s *ExpenseService) CreateExpense(ctx context.Context, owner core.Identity, in core.ExpenseInput) (core.Expense, error) {
	e, err := core.ValidateExpense(in)
	if err != nil {
		return core.Expense{}, err
	}

	saved, err := s.repo.CreateExpense(ctx, owner.UserID, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.ExpenseCreated, saved.ID, owner.UserID)
	return saved, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, owner core.Identity, id string) (core.Expense, error) {
	e, err := s.repo.GetExpense(ctx, owner.UserID, id)
	if err != nil {
		return core.Expense{}, translateNotFound(err, "Expense", "get expense")
	}
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) (core.ExpensePage, error) {
	page, err := s.repo.ListExpenses(ctx, owner.UserID, f)
	if err != nil {
		return core.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	return page, nil
}

// ExportExpenses returns every matching row, ignoring pagination.
func (s *ExpenseService) ExportExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) ([]core.Expense, error) {
	rows, err := s.repo.ExportExpenses(ctx, owner.UserID, f)
	if err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	return rows, nil
}

func (s *ExpenseService) SummarizeExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) (core.ExpenseSummary, error) {
	sum, err := s.repo.SummarizeExpenses(ctx, owner.UserID, f)
	if err != nil {
		return core.ExpenseSummary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return sum, nil
}

// UpdateExpense fully replaces the record. A missing id is reported as not
// found rather than created.
func (s *ExpenseService) UpdateExpense(ctx context.Context, owner core.Identity, id string, in core.ExpenseInput) (core.Expense, error) {
	e, err := core.ValidateExpense(in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id

	updated, err := s.repo.UpdateExpense(ctx, owner.UserID, e)
	if err != nil {
		return core.Expense{}, translateNotFound(err, "Expense", "update expense")
	}

	s.publish(ctx, amqp.ExpenseUpdated, updated.ID, owner.UserID)
	return updated, nil
}

// DeleteExpense removes the record. Deleting an id that does not exist
// succeeds.
func (s *ExpenseService) DeleteExpense(ctx context.Context, owner core.Identity, id string) error {
	deleted, err := s.repo.DeleteExpense(ctx, owner.UserID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if deleted {
		s.publish(ctx, amqp.ExpenseDeleted, id, owner.UserID)
	}
	return nil
}

// publish never fails the request; the row is already committed.
func (s *ExpenseService) publish(ctx context.Context, typ amqp.EventType, expenseID, ownerID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewExpenseEvent(typ, expenseID, ownerID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", typ, "expense_id", expenseID, "error", err)
	}
}

// Close releases the publisher connection. The repository is owned by the
// caller.
func (s *ExpenseService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close expense service: amqp: %w", err)
	}
	return nil
}

func translateNotFound(err error, resource, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotFound(resource)
	}
	return fmt.Errorf("%s: %w", op, err)
}
