// Package worker consumes the expense activity stream.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/log"
)

// Consumer is satisfied by *amqp.Client.
type Consumer interface {
	ConsumeActivity(ctx context.Context, handler func(context.Context, *amqp.ActivityMessage) error) error
}

// Stats is a snapshot of what the worker has seen since start.
type Stats struct {
	Total    int64
	ByAction map[amqp.Action]int64
	ByUser   map[string]int64
	Last     time.Time
}

// ActivityWorker logs each activity event and keeps running totals that are
// summarised periodically.
type ActivityWorker struct {
	logger          *log.Logger
	summaryInterval time.Duration

	mu    sync.Mutex
	stats Stats
}

func NewActivityWorker(logger *log.Logger, summaryInterval time.Duration) *ActivityWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ActivityWorker{
		logger:          logger.WithComponent(log.ComponentWorker),
		summaryInterval: summaryInterval,
		stats: Stats{
			ByAction: make(map[amqp.Action]int64),
			ByUser:   make(map[string]int64),
		},
	}
}

// HandleActivity records one event.
func (w *ActivityWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	if msg == nil {
		return errors.New("nil activity message")
	}
	w.mu.Lock()
	w.stats.Total++
	w.stats.ByAction[msg.Action]++
	w.stats.ByUser[msg.Username]++
	if msg.Timestamp.After(w.stats.Last) {
		w.stats.Last = msg.Timestamp
	}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Expense activity",
		log.FieldAction, msg.Action,
		log.FieldExpenseID, msg.ExpenseID,
		log.FieldUsername, msg.Username,
		"occurred_at", msg.Timestamp.Format(time.RFC3339))
	return nil
}

// Stats returns a copy of the running totals.
func (w *ActivityWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := Stats{
		Total:    w.stats.Total,
		ByAction: make(map[amqp.Action]int64, len(w.stats.ByAction)),
		ByUser:   make(map[string]int64, len(w.stats.ByUser)),
		Last:     w.stats.Last,
	}
	for k, v := range w.stats.ByAction {
		out.ByAction[k] = v
	}
	for k, v := range w.stats.ByUser {
		out.ByUser[k] = v
	}
	return out
}

// Run consumes until ctx is cancelled, logging a summary every interval.
func (w *ActivityWorker) Run(ctx context.Context, consumer Consumer) error {
	if w.summaryInterval > 0 {
		go w.summarise(ctx)
	}
	err := consumer.ConsumeActivity(ctx, w.HandleActivity)
	w.logSummary(context.WithoutCancel(ctx))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *ActivityWorker) summarise(ctx context.Context) {
	ticker := time.NewTicker(w.summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.logSummary(ctx)
		}
	}
}

func (w *ActivityWorker) logSummary(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Activity summary",
		"total", s.Total,
		"created", s.ByAction[amqp.ActionCreated],
		"updated", s.ByAction[amqp.ActionUpdated],
		"deleted", s.ByAction[amqp.ActionDeleted],
		"users", len(s.ByUser))
}
