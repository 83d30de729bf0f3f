package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ozzi82/method-flow-command-center/domain"
)

type backend interface {
	ListBoards(ctx context.Context, userID string) ([]domain.Board, error)
	InsertBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error)
	UpdateBoard(ctx context.Context, userID, id string, upd domain.BoardUpdate) (domain.Board, error)
	DeleteBoard(ctx context.Context, userID, id string) error
	ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error)
	InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, boardID, id string) error
	DeleteBoardTasks(ctx context.Context, userID, boardID string) error
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
	InsertContact(ctx context.Context, userID string, c domain.Contact) (domain.Contact, error)
	UpdateContact(ctx context.Context, userID, id string, upd domain.ContactUpdate) (domain.Contact, error)
	DeleteContact(ctx context.Context, userID, id string) error
	UpsertContacts(ctx context.Context, userID string, contacts []domain.Contact) error
	InsertSyncRecord(ctx context.Context, userID string, rec domain.SyncRecord) (domain.SyncRecord, error)
	ListSyncRecords(ctx context.Context, userID string) ([]domain.SyncRecord, error)
}

// Cache wraps a store with Redis-backed caching for the list reads. Mutations
// pass through and evict the affected scope. Any Redis or decode problem falls
// back to the backing store without failing the request.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func boardsCacheKey(userID string) string          { return "boards:" + userID }
func tasksCacheKey(userID, boardID string) string  { return "tasks:" + userID + ":" + boardID }
func contactsCacheKey(userID string) string        { return "contacts:" + userID }

func (c *Cache) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	key := boardsCacheKey(userID)
	var cached []domain.Board
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	boards, err := c.base.ListBoards(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, boards)
	return boards, nil
}

func (c *Cache) InsertBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error) {
	created, err := c.base.InsertBoard(ctx, userID, b)
	if err != nil {
		return domain.Board{}, err
	}
	c.evict(ctx, boardsCacheKey(userID))
	return created, nil
}

func (c *Cache) UpdateBoard(ctx context.Context, userID, id string, upd domain.BoardUpdate) (domain.Board, error) {
	updated, err := c.base.UpdateBoard(ctx, userID, id, upd)
	if err != nil {
		return domain.Board{}, err
	}
	c.evict(ctx, boardsCacheKey(userID))
	return updated, nil
}

func (c *Cache) DeleteBoard(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteBoard(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, boardsCacheKey(userID), tasksCacheKey(userID, id))
	return nil
}

func (c *Cache) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	key := tasksCacheKey(userID, boardID)
	var cached []domain.Task
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	tasks, err := c.base.ListTasks(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, tasks)
	return tasks, nil
}

func (c *Cache) InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	created, err := c.base.InsertTask(ctx, userID, t)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(userID, created.BoardID))
	return created, nil
}

func (c *Cache) UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	updated, err := c.base.UpdateTask(ctx, userID, id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(userID, updated.BoardID))
	return updated, nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, boardID, id string) error {
	if err := c.base.DeleteTask(ctx, userID, boardID, id); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(userID, boardID))
	return nil
}

func (c *Cache) DeleteBoardTasks(ctx context.Context, userID, boardID string) error {
	if err := c.base.DeleteBoardTasks(ctx, userID, boardID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(userID, boardID))
	return nil
}

func (c *Cache) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	key := contactsCacheKey(userID)
	var cached []domain.Contact
	if c.load(ctx, key, &cached) {
		return cached, nil
	}
	contacts, err := c.base.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, contacts)
	return contacts, nil
}

func (c *Cache) InsertContact(ctx context.Context, userID string, contact domain.Contact) (domain.Contact, error) {
	created, err := c.base.InsertContact(ctx, userID, contact)
	if err != nil {
		return domain.Contact{}, err
	}
	c.evict(ctx, contactsCacheKey(userID))
	return created, nil
}

func (c *Cache) UpdateContact(ctx context.Context, userID, id string, upd domain.ContactUpdate) (domain.Contact, error) {
	updated, err := c.base.UpdateContact(ctx, userID, id, upd)
	if err != nil {
		return domain.Contact{}, err
	}
	c.evict(ctx, contactsCacheKey(userID))
	return updated, nil
}

func (c *Cache) DeleteContact(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteContact(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, contactsCacheKey(userID))
	return nil
}

func (c *Cache) UpsertContacts(ctx context.Context, userID string, contacts []domain.Contact) error {
	if err := c.base.UpsertContacts(ctx, userID, contacts); err != nil {
		return err
	}
	c.evict(ctx, contactsCacheKey(userID))
	return nil
}

// Sync records are audit rows read rarely and written once; they bypass the
// cache entirely.
func (c *Cache) InsertSyncRecord(ctx context.Context, userID string, rec domain.SyncRecord) (domain.SyncRecord, error) {
	return c.base.InsertSyncRecord(ctx, userID, rec)
}

func (c *Cache) ListSyncRecords(ctx context.Context, userID string) ([]domain.SyncRecord, error) {
	return c.base.ListSyncRecords(ctx, userID)
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, val any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}
