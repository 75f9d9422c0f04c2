// Package services runs expense mutations against the API and announces
// them on the activity stream.
package services

import (
	"context"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/remote"
)

// ActivityPublisher is satisfied by *amqp.Client.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

// ExpenseService performs mutations for one signed-in user. The API call
// decides success; the activity event is best effort.
type ExpenseService struct {
	expenses  remote.ExpenseWriter
	publisher ActivityPublisher
	username  string
	logger    *log.Logger
}

// NewExpenseService wraps expenses. publisher may be nil when no broker is
// configured.
func NewExpenseService(expenses remote.ExpenseWriter, publisher ActivityPublisher, username string, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		expenses:  expenses,
		publisher: publisher,
		username:  username,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.expenses.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense created",
		log.NewFields().WithOperation(log.OpCreate).
			WithExpense(e.ID, e.Amount.String(), string(e.Category)).
			WithUsername(s.username).ToSlice()...)
	s.publish(ctx, amqp.ActionCreated, e.ID)
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, id int64, patch core.ExpensePatch) (core.Expense, error) {
	e, err := s.expenses.UpdateExpense(ctx, id, patch)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense updated",
		log.NewFields().WithOperation(log.OpUpdate).
			WithExpense(e.ID, e.Amount.String(), string(e.Category)).
			WithUsername(s.username).ToSlice()...)
	s.publish(ctx, amqp.ActionUpdated, e.ID)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.expenses.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		log.NewFields().WithOperation(log.OpDelete).WithExpense(id, "", "").WithUsername(s.username).ToSlice()...)
	s.publish(ctx, amqp.ActionDeleted, id)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, action amqp.Action, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, amqp.NewActivityMessage(action, id, s.username)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish activity event",
			log.FieldAction, action, log.FieldExpenseID, id, log.FieldError, err)
	}
}
