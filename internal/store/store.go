package store

import "context"

// Store defines the interface for assignment and analytics storage
type Store interface {
	// Assignment operations
	GetAssignment(ctx context.Context, visitorID, key string) (string, error)
	SetAssignment(ctx context.Context, visitorID, key, value string) error
	ListAssignments(ctx context.Context, visitorID string) ([]*Assignment, error)

	// Event operations
	RecordEvent(ctx context.Context, category, action, label, visitorID string) error
	GetEvents(ctx context.Context, action string) ([]*Event, error)
	CountEvents(ctx context.Context) ([]ActionCount, error)

	// Lifecycle
	Close() error
}
