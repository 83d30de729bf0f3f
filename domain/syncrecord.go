package domain

import "time"

// SyncStatus is the outcome recorded for one CRM synchronization attempt.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// SyncRecord is one row of the append-only CRM sync audit log. Rows are only
// ever inserted, one per attempt; they are never updated.
type SyncRecord struct {
	ID           string     `json:"id"`
	EntityType   string     `json:"entityType"`
	EntityID     string     `json:"entityId"`
	MethodCRMID  string     `json:"methodCrmId,omitempty"`
	SyncStatus   SyncStatus `json:"syncStatus"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	LastSynced   time.Time  `json:"lastSynced"`
}
