// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"github.com/asedra/attila/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, title, description string, metadata []byte) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, limit int, includeInactive bool) ([]domain.Session, error)
	UpdateSession(ctx context.Context, sessionID string, fields SessionUpdate) (*domain.Session, error)
	SoftDeleteSession(ctx context.Context, sessionID string) (bool, error)
	HardDeleteSession(ctx context.Context, sessionID string) (bool, error)

	// Message operations
	AddMessage(ctx context.Context, sessionID, content, messageType string, metadata []byte) (*domain.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.Message, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, messageID string) (bool, error)
	SearchMessages(ctx context.Context, query, sessionID string, limit int) ([]domain.Message, error)
	SessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error)

	// Function catalog operations
	ListFunctions(ctx context.Context, includeDisabled bool) ([]domain.Function, error)
	ListFunctionsByCategory(ctx context.Context, category string) ([]domain.Function, error)
	FunctionCategories(ctx context.Context) ([]string, error)
	GetFunction(ctx context.Context, functionID string) (*domain.Function, error)
	CreateFunction(ctx context.Context, fn *domain.Function) error
	UpdateFunction(ctx context.Context, functionID string, fields FunctionUpdate) (*domain.Function, error)
	DeleteFunction(ctx context.Context, functionID string) (bool, error)

	// Lifecycle
	Close() error
}

// SessionUpdate carries the optional fields of a session update. Nil fields
// are left unchanged.
type SessionUpdate struct {
	Title       *string
	Description *string
	Metadata    []byte
}

// FunctionUpdate carries the optional fields of a function update.
type FunctionUpdate struct {
	Name           *string
	Description    *string
	Icon           *string
	Category       *string
	Parameters     []byte
	IsEnabled      *bool
	Implementation *string
	Metadata       []byte
}
