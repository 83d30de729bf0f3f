package api

import (
	"context"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// Syncer abstracts the CRM bridge for handlers.
type Syncer interface {
	SyncContacts(ctx context.Context, userID string) (int, error)
	CreateActivity(ctx context.Context, task domain.Task, userID string) (string, error)
	SyncStatus(ctx context.Context, userID string) ([]domain.SyncRecord, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Guard serializes contact syncs: at most one in flight per user across all
// instances.
type Guard interface {
	// Acquire marks a sync in flight and returns true if none was running.
	Acquire(ctx context.Context, userID string) (bool, error)
	// Release clears the in-flight marker when the sync finishes.
	Release(ctx context.Context, userID string) error
}
