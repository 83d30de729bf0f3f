package storage

import (
	"time"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// Entity represents base table entity keys. PartitionKey is always the owning
// user, RowKey the record identifier, which gives row-level owner scoping.
type Entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type boardEntity struct {
	Entity
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	Color       string `json:"Color"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// boardUpdate carries partial updates for a board row.
type boardUpdate struct {
	Entity
	Name        *string `json:"Name,omitempty"`
	Description *string `json:"Description,omitempty"`
	Color       *string `json:"Color,omitempty"`
	UpdatedAt   string  `json:"UpdatedAt"`
}

type taskEntity struct {
	Entity
	Title       string `json:"Title"`
	Description string `json:"Description,omitempty"`
	Status      string `json:"Status"`
	Priority    string `json:"Priority"`
	DueDate     string `json:"DueDate,omitempty"`
	ReminderSet bool   `json:"ReminderSet"`
	BoardID     string `json:"BoardId"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// taskUpdate carries partial updates for a task row.
type taskUpdate struct {
	Entity
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	Status      *string `json:"Status,omitempty"`
	Priority    *string `json:"Priority,omitempty"`
	DueDate     *string `json:"DueDate,omitempty"`
	ReminderSet *bool   `json:"ReminderSet,omitempty"`
	UpdatedAt   string  `json:"UpdatedAt"`
}

type contactEntity struct {
	Entity
	Name        string `json:"Name"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Company,omitempty"`
	MethodCRMID string `json:"MethodCrmId,omitempty"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// contactUpdate carries partial updates for a contact row.
type contactUpdate struct {
	Entity
	Name      *string `json:"Name,omitempty"`
	Email     *string `json:"Email,omitempty"`
	Phone     *string `json:"Phone,omitempty"`
	Company   *string `json:"Company,omitempty"`
	UpdatedAt string  `json:"UpdatedAt"`
}

type syncRecordEntity struct {
	Entity
	EntityType   string `json:"EntityType"`
	EntityID     string `json:"EntityId"`
	MethodCRMID  string `json:"MethodCrmId,omitempty"`
	SyncStatus   string `json:"SyncStatus"`
	ErrorMessage string `json:"ErrorMessage,omitempty"`
	LastSynced   string `json:"LastSynced"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e boardEntity) toDomain() domain.Board {
	return domain.Board{
		ID:          e.RowKey,
		Name:        e.Name,
		Description: e.Description,
		Color:       e.Color,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
}

func (e taskEntity) toDomain() domain.Task {
	t := domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Status:      domain.TaskStatus(e.Status),
		Priority:    domain.Priority(e.Priority),
		ReminderSet: e.ReminderSet,
		BoardID:     e.BoardID,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
	if e.DueDate != "" {
		due := parseTime(e.DueDate)
		t.DueDate = &due
	}
	return t
}

func (e contactEntity) toDomain() domain.Contact {
	return domain.Contact{
		ID:          e.RowKey,
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		Company:     e.Company,
		MethodCRMID: e.MethodCRMID,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
}

func (e syncRecordEntity) toDomain() domain.SyncRecord {
	return domain.SyncRecord{
		ID:           e.RowKey,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		MethodCRMID:  e.MethodCRMID,
		SyncStatus:   domain.SyncStatus(e.SyncStatus),
		ErrorMessage: e.ErrorMessage,
		LastSynced:   parseTime(e.LastSynced),
	}
}
