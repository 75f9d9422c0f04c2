// Package backend assembles the infrastructure the web frontend runs on:
// the session store and, when a broker is configured, the activity
// publisher.
package backend

import (
	"context"

	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult holds the assembled pieces and their cleanup.
type BackendResult struct {
	Sessions session.Store
	// Publisher is nil when AMQP is disabled or unreachable.
	Publisher services.ActivityPublisher
	Ready     ReadyFunc
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Activity events; empty AMQPURL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names where sessions are kept.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
