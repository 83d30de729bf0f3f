package api

import (
	"time"

	"github.com/bytedance/sonic"
)

const syncRequestMaxSize = 64 * 1024 // 64 KiB

// Sync adapter invocation contract. One request type carries the action and
// an optional payload; the caller-provided user_id scopes every write.
type syncRequest struct {
	Action string                 `json:"action"`
	Data   sonic.NoCopyRawMessage `json:"data,omitempty"`
	UserID string                 `json:"user_id"`
}

// Actions the adapter accepts. sync_tasks and create_contact are defined but
// not implemented; they answer with a placeholder success.
const (
	actionSyncContacts   = "sync_contacts"
	actionSyncTasks      = "sync_tasks"
	actionCreateActivity = "create_activity"
	actionCreateContact  = "create_contact"
)

type syncResponse struct {
	Success  bool   `json:"success"`
	Count    *int   `json:"count,omitempty"`
	MethodID string `json:"method_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func newErrorResponse(message, details string) errorResponse {
	return errorResponse{
		Error:     message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
