package backend

import (
	"context"

	"finassist/internal/amqp"
	"finassist/internal/services"
	"finassist/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the record store and the optional event client.
// Store is nil for the "none" backend; Events is nil when AMQP is off.
type BackendResult struct {
	Store   storage.RecordStore
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns Events as an EventPublisher, or a nil interface when
// publishing is disabled.
func (r *BackendResult) Publisher() services.EventPublisher {
	if r.Events == nil {
		return nil
	}
	return r.Events
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
	NoneBackend     BackendType = "none"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend, NoneBackend:
		return true
	default:
		return false
	}
}
