// Package storage persists boards, tasks, contacts and the CRM sync log in
// Azure Table Storage. Every table is partitioned by the owning user, so a
// request can only ever touch rows of the user it is scoped to.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// ErrNotFound indicates the requested row does not exist in the caller's
// partition.
var ErrNotFound = errors.New("record not found")

// Storage provides access to the underlying table service.
type Storage struct {
	boardTable   *aztables.Client
	taskTable    *aztables.Client
	contactTable *aztables.Client
	syncTable    *aztables.Client

	now func() time.Time
}

// New creates a Storage instance from the given connection string.
func New(connStr, boardsTable, tasksTable, contactsTable, syncTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		boardTable:   svc.NewClient(boardsTable),
		taskTable:    svc.NewClient(tasksTable),
		contactTable: svc.NewClient(contactsTable),
		syncTable:    svc.NewClient(syncTable),
		now:          time.Now,
	}, nil
}

func partitionFilter(userID string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(userID, "'", "''") + "'"
}

// ListBoards retrieves all boards owned by the user, newest first.
func (s *Storage) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	filter := partitionFilter(userID)
	pager := s.boardTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	boards := []domain.Board{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent boardEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			boards = append(boards, ent.toDomain())
		}
	}
	sort.SliceStable(boards, func(i, j int) bool { return boards[i].CreatedAt.After(boards[j].CreatedAt) })
	return boards, nil
}

// InsertBoard stores a new board with a server-assigned identity and
// timestamps and returns the completed record.
func (s *Storage) InsertBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error) {
	now := s.now()
	ent := boardEntity{
		Entity:      Entity{PartitionKey: userID, RowKey: uuid.NewString()},
		Name:        b.Name,
		Description: b.Description,
		Color:       b.Color,
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Board{}, err
	}
	if _, err := s.boardTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Board{}, err
	}
	return ent.toDomain(), nil
}

// UpdateBoard merges the named fields into an existing board and returns the
// refreshed record.
func (s *Storage) UpdateBoard(ctx context.Context, userID, id string, upd domain.BoardUpdate) (domain.Board, error) {
	ent := boardUpdate{
		Entity:      Entity{PartitionKey: userID, RowKey: id},
		Name:        upd.Name,
		Description: upd.Description,
		Color:       upd.Color,
		UpdatedAt:   formatTime(s.now()),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Board{}, err
	}
	et := azcore.ETagAny
	if _, err := s.boardTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return domain.Board{}, mapNotFound(err)
	}
	return s.getBoard(ctx, userID, id)
}

func (s *Storage) getBoard(ctx context.Context, userID, id string) (domain.Board, error) {
	resp, err := s.boardTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Board{}, mapNotFound(err)
	}
	var ent boardEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Board{}, err
	}
	return ent.toDomain(), nil
}

// DeleteBoard removes a single board row. Cascading task deletion is the
// caller's responsibility (see DeleteBoardTasks).
func (s *Storage) DeleteBoard(ctx context.Context, userID, id string) error {
	_, err := s.boardTable.DeleteEntity(ctx, userID, id, nil)
	return mapNotFound(err)
}

// ListTasks retrieves all tasks of one board owned by the user, newest first.
func (s *Storage) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	filter := partitionFilter(userID) + " and BoardId eq '" + strings.ReplaceAll(boardID, "'", "''") + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toDomain())
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

// InsertTask stores a new task with a server-assigned identity and timestamps.
func (s *Storage) InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	now := s.now()
	ent := taskEntity{
		Entity:      Entity{PartitionKey: userID, RowKey: uuid.NewString()},
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ReminderSet: t.ReminderSet,
		BoardID:     t.BoardID,
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	}
	if t.DueDate != nil {
		ent.DueDate = formatTime(*t.DueDate)
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, err
	}
	return ent.toDomain(), nil
}

// UpdateTask merges the named fields into an existing task, refreshes its
// updated timestamp and returns the refreshed record.
func (s *Storage) UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	ent := taskUpdate{
		Entity:      Entity{PartitionKey: userID, RowKey: id},
		Title:       upd.Title,
		Description: upd.Description,
		ReminderSet: upd.ReminderSet,
		UpdatedAt:   formatTime(s.now()),
	}
	if upd.Status != nil {
		v := string(*upd.Status)
		ent.Status = &v
	}
	if upd.Priority != nil {
		v := string(*upd.Priority)
		ent.Priority = &v
	}
	if upd.DueDate != nil {
		v := formatTime(*upd.DueDate)
		ent.DueDate = &v
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	et := azcore.ETagAny
	if _, err := s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return s.getTask(ctx, userID, id)
}

func (s *Storage) getTask(ctx context.Context, userID, id string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return ent.toDomain(), nil
}

// DeleteTask removes a single task row. The boardID only scopes cache
// invalidation in wrappers; the table key is (userID, id).
func (s *Storage) DeleteTask(ctx context.Context, userID, boardID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, userID, id, nil)
	return mapNotFound(err)
}

// DeleteBoardTasks removes every task belonging to the board. Used for the
// cascade when a board is deleted; the table service offers no cascade of its
// own.
func (s *Storage) DeleteBoardTasks(ctx context.Context, userID, boardID string) error {
	tasks, err := s.ListTasks(ctx, userID, boardID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if _, err := s.taskTable.DeleteEntity(ctx, userID, t.ID, nil); err != nil {
			if errors.Is(mapNotFound(err), ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

// ListContacts retrieves all contacts owned by the user, newest first.
func (s *Storage) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	filter := partitionFilter(userID)
	pager := s.contactTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	contacts := []domain.Contact{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent contactEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			contacts = append(contacts, ent.toDomain())
		}
	}
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].CreatedAt.After(contacts[j].CreatedAt) })
	return contacts, nil
}

// InsertContact stores a locally created contact.
func (s *Storage) InsertContact(ctx context.Context, userID string, c domain.Contact) (domain.Contact, error) {
	now := s.now()
	ent := contactEntity{
		Entity:      Entity{PartitionKey: userID, RowKey: uuid.NewString()},
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Company:     c.Company,
		MethodCRMID: c.MethodCRMID,
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Contact{}, err
	}
	if _, err := s.contactTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Contact{}, err
	}
	return ent.toDomain(), nil
}

// UpdateContact merges the named fields into an existing contact, refreshes
// its updated timestamp and returns the refreshed record.
func (s *Storage) UpdateContact(ctx context.Context, userID, id string, upd domain.ContactUpdate) (domain.Contact, error) {
	ent := contactUpdate{
		Entity:    Entity{PartitionKey: userID, RowKey: id},
		Name:      upd.Name,
		Email:     upd.Email,
		Phone:     upd.Phone,
		Company:   upd.Company,
		UpdatedAt: formatTime(s.now()),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Contact{}, err
	}
	et := azcore.ETagAny
	if _, err := s.contactTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return domain.Contact{}, mapNotFound(err)
	}
	return s.getContact(ctx, userID, id)
}

func (s *Storage) getContact(ctx context.Context, userID, id string) (domain.Contact, error) {
	resp, err := s.contactTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Contact{}, mapNotFound(err)
	}
	var ent contactEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Contact{}, err
	}
	return ent.toDomain(), nil
}

// DeleteContact removes a single contact row.
func (s *Storage) DeleteContact(ctx context.Context, userID, id string) error {
	_, err := s.contactTable.DeleteEntity(ctx, userID, id, nil)
	return mapNotFound(err)
}

// UpsertContacts bulk-upserts CRM-imported contacts. The row key is derived
// from the Method CRM identifier, so repeated syncs replace existing rows for
// the same (MethodCRMID, user) pair instead of duplicating them.
func (s *Storage) UpsertContacts(ctx context.Context, userID string, contacts []domain.Contact) error {
	now := formatTime(s.now())
	for _, c := range contacts {
		rowKey := "crm-" + c.MethodCRMID
		if c.MethodCRMID == "" {
			rowKey = uuid.NewString()
		}
		ent := contactEntity{
			Entity:      Entity{PartitionKey: userID, RowKey: rowKey},
			Name:        c.Name,
			Email:       c.Email,
			Phone:       c.Phone,
			Company:     c.Company,
			MethodCRMID: c.MethodCRMID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		payload, err := json.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := s.contactTable.UpsertEntity(ctx, payload, nil); err != nil {
			return err
		}
	}
	return nil
}

// InsertSyncRecord appends one row to the sync audit log. The log is
// append-only; rows are never updated.
func (s *Storage) InsertSyncRecord(ctx context.Context, userID string, rec domain.SyncRecord) (domain.SyncRecord, error) {
	if rec.LastSynced.IsZero() {
		rec.LastSynced = s.now()
	}
	ent := syncRecordEntity{
		Entity:       Entity{PartitionKey: userID, RowKey: uuid.NewString()},
		EntityType:   rec.EntityType,
		EntityID:     rec.EntityID,
		MethodCRMID:  rec.MethodCRMID,
		SyncStatus:   string(rec.SyncStatus),
		ErrorMessage: rec.ErrorMessage,
		LastSynced:   formatTime(rec.LastSynced),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.SyncRecord{}, err
	}
	if _, err := s.syncTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.SyncRecord{}, err
	}
	return ent.toDomain(), nil
}

// ListSyncRecords retrieves the user's sync audit rows, newest first.
func (s *Storage) ListSyncRecords(ctx context.Context, userID string) ([]domain.SyncRecord, error) {
	filter := partitionFilter(userID)
	pager := s.syncTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	records := []domain.SyncRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent syncRecordEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			records = append(records, ent.toDomain())
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].LastSynced.After(records[j].LastSynced) })
	return records, nil
}

func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 {
		return ErrNotFound
	}
	return err
}
