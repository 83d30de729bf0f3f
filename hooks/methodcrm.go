package hooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// MethodCRM invokes the sync service on behalf of the signed-in user: manual
// contact sync, mirroring a task into the CRM after creation, and the audit
// feed. CRM failures surface as notifications only; they never abort the
// local operation that triggered them.
type MethodCRM struct {
	baseURL string
	token   string
	session Session
	notify  Notifier
	client  *http.Client
}

type syncEnvelope struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
	UserID string `json:"user_id"`
}

type syncResult struct {
	Success  bool   `json:"success"`
	Count    int    `json:"count"`
	MethodID string `json:"method_id"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

func NewMethodCRM(baseURL, token string, session Session, notify Notifier) *MethodCRM {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &MethodCRM{
		baseURL: baseURL,
		token:   token,
		session: session,
		notify:  notify,
		client:  &http.Client{},
	}
}

// SyncContacts triggers a manual contact sync and returns the processed count.
func (m *MethodCRM) SyncContacts(ctx context.Context) (int, error) {
	if m.session.Anonymous() {
		m.notify.Error("Error", "You must be logged in to sync contacts")
		return 0, nil
	}
	res, err := m.invoke(ctx, http.MethodPost, "/api/method-sync", syncEnvelope{
		Action: "sync_contacts",
		UserID: m.session.UserID,
	})
	if err != nil {
		m.notify.Error("Error", "Failed to sync contacts from Method CRM")
		return 0, err
	}
	m.notify.Success("Success", fmt.Sprintf("Synced %d contacts from Method CRM", res.Count))
	return res.Count, nil
}

// CreateActivity mirrors a freshly created task into the CRM. On failure the
// task stays created locally; only a warning notification is raised.
func (m *MethodCRM) CreateActivity(ctx context.Context, task domain.Task) (string, error) {
	if m.session.Anonymous() {
		return "", nil
	}
	res, err := m.invoke(ctx, http.MethodPost, "/api/method-sync", syncEnvelope{
		Action: "create_activity",
		Data:   task,
		UserID: m.session.UserID,
	})
	if err != nil {
		m.notify.Error("Warning", "Task created locally but failed to sync to Method CRM")
		return "", err
	}
	if !res.Success {
		m.notify.Error("Warning", "Task created locally but failed to sync to Method CRM")
		return "", nil
	}
	m.notify.Success("Success", "Task synced to Method CRM")
	return res.MethodID, nil
}

// SyncStatus fetches the user's sync audit rows, newest first.
func (m *MethodCRM) SyncStatus(ctx context.Context) ([]domain.SyncRecord, error) {
	if m.session.Anonymous() {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/method-sync/status", nil)
	if err != nil {
		return nil, err
	}
	m.authorize(req)
	resp, err := m.client.Do(req)
	if err != nil {
		m.notify.Error("Error", "Failed to fetch sync status")
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		m.notify.Error("Error", "Failed to fetch sync status")
		return nil, fmt.Errorf("sync status: %d - %s", resp.StatusCode, string(body))
	}
	var records []domain.SyncRecord
	if err := sonic.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MethodCRM) invoke(ctx context.Context, httpMethod, path string, envelope syncEnvelope) (syncResult, error) {
	payload, err := sonic.Marshal(envelope)
	if err != nil {
		return syncResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return syncResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	m.authorize(req)
	resp, err := m.client.Do(req)
	if err != nil {
		return syncResult{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return syncResult{}, err
	}
	var res syncResult
	if err := sonic.Unmarshal(body, &res); err != nil {
		return syncResult{}, fmt.Errorf("sync service: %d - %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		msg := res.Error
		if msg == "" {
			msg = string(body)
		}
		return syncResult{}, fmt.Errorf("sync service: %d - %s", resp.StatusCode, msg)
	}
	return res, nil
}

func (m *MethodCRM) authorize(req *http.Request) {
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}
}
