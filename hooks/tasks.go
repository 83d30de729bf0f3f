package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// TaskStore is the persistence surface the tasks hook needs.
type TaskStore interface {
	ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error)
	InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, boardID, id string) error
}

// Tasks fetches and mutates the tasks of the active board, maintaining an
// in-memory mirror for rendering. Drag-driven status changes are applied
// optimistically: the mirror mutates first, persistence runs through the
// dispatcher, and on failure the entry reverts to its last confirmed state.
type Tasks struct {
	store      TaskStore
	session    Session
	notify     Notifier
	dispatcher *Dispatcher

	mu        sync.Mutex
	boardID   string
	gen       uint64
	mirror    []domain.Task
	confirmed map[string]domain.Task
}

func NewTasks(store TaskStore, session Session, notify Notifier, dispatcher *Dispatcher) *Tasks {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Tasks{
		store:      store,
		session:    session,
		notify:     notify,
		dispatcher: dispatcher,
		confirmed:  map[string]domain.Task{},
	}
}

// Tasks returns a copy of the current mirror.
func (t *Tasks) Tasks() []domain.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Task, len(t.mirror))
	copy(out, t.mirror)
	return out
}

// BoardID returns the active scoping board.
func (t *Tasks) BoardID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.boardID
}

// SetBoard switches the scoping board and re-fetches its tasks. Each fetch
// carries a generation number; a response that arrives after the scope moved
// on is discarded rather than overwriting the newer board's tasks.
func (t *Tasks) SetBoard(ctx context.Context, boardID string) error {
	t.mu.Lock()
	t.boardID = boardID
	t.gen++
	gen := t.gen
	if t.session.Anonymous() || boardID == "" {
		t.mirror = nil
		t.confirmed = map[string]domain.Task{}
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	return t.fetch(ctx, gen, boardID)
}

// Refresh re-fetches the active board's tasks, newest first.
func (t *Tasks) Refresh(ctx context.Context) error {
	t.mu.Lock()
	if t.session.Anonymous() || t.boardID == "" {
		t.mu.Unlock()
		return nil
	}
	t.gen++
	gen := t.gen
	boardID := t.boardID
	t.mu.Unlock()
	return t.fetch(ctx, gen, boardID)
}

func (t *Tasks) fetch(ctx context.Context, gen uint64, boardID string) error {
	tasks, err := t.store.ListTasks(ctx, t.session.UserID, boardID)
	t.mu.Lock()
	if gen != t.gen {
		// A newer fetch superseded this one while it was in flight; its
		// outcome, success or failure, no longer matters.
		t.mu.Unlock()
		return nil
	}
	if err != nil {
		t.mu.Unlock()
		t.notify.Error("Error", "Failed to fetch tasks")
		return err
	}
	t.mirror = tasks
	t.confirmed = map[string]domain.Task{}
	t.mu.Unlock()
	return nil
}

// Create inserts a task on the active board and prepends it to the mirror.
func (t *Tasks) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	t.mu.Lock()
	boardID := t.boardID
	t.mu.Unlock()
	if t.session.Anonymous() || boardID == "" {
		return domain.Task{}, nil
	}
	if task.Status == "" {
		task.Status = domain.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if !task.Status.Valid() {
		return domain.Task{}, fmt.Errorf("invalid task status %q", task.Status)
	}
	if !task.Priority.Valid() {
		return domain.Task{}, fmt.Errorf("invalid task priority %q", task.Priority)
	}
	task.BoardID = boardID
	created, err := t.store.InsertTask(ctx, t.session.UserID, task)
	if err != nil {
		t.notify.Error("Error", "Failed to create task")
		return domain.Task{}, err
	}
	t.mu.Lock()
	if t.boardID == boardID {
		t.mirror = append([]domain.Task{created}, t.mirror...)
	}
	t.mu.Unlock()
	t.notify.Success("Success", "Task created successfully")
	return created, nil
}

// Update patches the named fields only and replaces the mirror entry with the
// confirmed record. An empty patch returns the current mirror entry without a
// store call.
func (t *Tasks) Update(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	if t.session.Anonymous() {
		return domain.Task{}, nil
	}
	if upd.Empty() {
		current, _ := t.Task(id)
		return current, nil
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return domain.Task{}, fmt.Errorf("invalid task status %q", *upd.Status)
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return domain.Task{}, fmt.Errorf("invalid task priority %q", *upd.Priority)
	}
	updated, err := t.store.UpdateTask(ctx, t.session.UserID, id, upd)
	if err != nil {
		t.notify.Error("Error", "Failed to update task")
		return domain.Task{}, err
	}
	t.confirm(id, updated)
	return updated, nil
}

// Delete removes a task remotely and from the mirror.
func (t *Tasks) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	boardID := t.boardID
	t.mu.Unlock()
	if t.session.Anonymous() {
		return nil
	}
	if err := t.store.DeleteTask(ctx, t.session.UserID, boardID, id); err != nil {
		t.notify.Error("Error", "Failed to delete task")
		return err
	}
	t.mu.Lock()
	for i := range t.mirror {
		if t.mirror[i].ID == id {
			t.mirror = append(t.mirror[:i], t.mirror[i+1:]...)
			break
		}
	}
	delete(t.confirmed, id)
	t.mu.Unlock()
	t.notify.Success("Success", "Task deleted successfully")
	return nil
}

// Task looks up a mirror entry by ID.
func (t *Tasks) Task(id string) (domain.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, task := range t.mirror {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

// Pending reports whether a task has an optimistic change awaiting
// confirmation.
func (t *Tasks) Pending(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.confirmed[id]
	return ok
}

// SetStatus applies a drag-driven status change. The mirror mutates
// immediately and the persistence call is dispatched without blocking the
// gesture; on failure the entry reverts to its last confirmed state.
func (t *Tasks) SetStatus(id string, status domain.TaskStatus) {
	if !status.Valid() {
		return
	}
	t.mu.Lock()
	idx := -1
	for i := range t.mirror {
		if t.mirror[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || t.mirror[idx].Status == status {
		t.mu.Unlock()
		return
	}
	if _, pending := t.confirmed[id]; !pending {
		t.confirmed[id] = t.mirror[idx]
	}
	t.mirror[idx].Status = status
	t.mirror[idx].UpdatedAt = time.Now()
	t.mu.Unlock()

	if t.session.Anonymous() {
		return
	}
	persist := func(ctx context.Context) {
		updated, err := t.store.UpdateTask(ctx, t.session.UserID, id, domain.TaskUpdate{Status: &status})
		if err != nil {
			t.revert(id)
			t.notify.Error("Error", "Failed to update task")
			return
		}
		t.confirm(id, updated)
	}
	if t.dispatcher == nil {
		persist(context.Background())
		return
	}
	t.dispatcher.Dispatch(persist)
}

// Move reorders the mirror: the source entry is removed from its position and
// reinserted at the target entry's position, shifting everything between by
// one. Used only for same-column drops.
func (t *Tasks) Move(sourceID, targetID string) {
	if sourceID == targetID {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	from, to := -1, -1
	for i := range t.mirror {
		switch t.mirror[i].ID {
		case sourceID:
			from = i
		case targetID:
			to = i
		}
	}
	if from < 0 || to < 0 || from == to {
		return
	}
	// Splice semantics: remove at the source index, then insert at the target
	// index of the shortened slice, so everything between shifts by one.
	moved := t.mirror[from]
	t.mirror = append(t.mirror[:from], t.mirror[from+1:]...)
	if to > len(t.mirror) {
		to = len(t.mirror)
	}
	rest := append([]domain.Task{moved}, t.mirror[to:]...)
	t.mirror = append(t.mirror[:to:to], rest...)
}

func (t *Tasks) confirm(id string, updated domain.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.confirmed, id)
	for i := range t.mirror {
		if t.mirror[i].ID == id {
			t.mirror[i] = updated
			return
		}
	}
}

func (t *Tasks) revert(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot, ok := t.confirmed[id]
	if !ok {
		return
	}
	delete(t.confirmed, id)
	for i := range t.mirror {
		if t.mirror[i].ID == id {
			t.mirror[i] = snapshot
			return
		}
	}
}
