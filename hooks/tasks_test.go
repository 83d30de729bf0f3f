package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ozzi82/method-flow-command-center/domain"
)

type mockTaskStore struct {
	mu           sync.Mutex
	tasksBy      map[string][]domain.Task
	insertErr    error
	updateErr    error
	listErrBoard string
	listErr      error
	updates      []domain.TaskUpdate

	onList func(boardID string)
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasksBy: map[string][]domain.Task{}}
}

func (m *mockTaskStore) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	if m.onList != nil {
		m.onList(boardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil && boardID == m.listErrBoard {
		return nil, m.listErr
	}
	return m.tasksBy[boardID], nil
}

func (m *mockTaskStore) InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	if m.insertErr != nil {
		return domain.Task{}, m.insertErr
	}
	t.ID = "created"
	return t, nil
}

func (m *mockTaskStore) UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	m.mu.Lock()
	m.updates = append(m.updates, upd)
	m.mu.Unlock()
	if m.updateErr != nil {
		return domain.Task{}, m.updateErr
	}
	t := domain.Task{ID: id}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	return t, nil
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, userID, boardID, id string) error {
	return nil
}

func (m *mockTaskStore) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

func newTestTasks(store TaskStore) *Tasks {
	return NewTasks(store, Session{UserID: "user"}, &recordingNotifier{}, nil)
}

func TestTasksCreateAppliesDefaults(t *testing.T) {
	store := newMockTaskStore()
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, err := tasks.Create(context.Background(), domain.Task{Title: "write it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != domain.StatusTodo || created.Priority != domain.PriorityMedium {
		t.Fatalf("expected defaults, got %+v", created)
	}
	if created.BoardID != "b1" {
		t.Fatalf("expected board scope, got %q", created.BoardID)
	}
	got := tasks.Tasks()
	if len(got) != 1 || got[0].ID != "created" {
		t.Fatalf("expected created task in mirror, got %+v", got)
	}
}

func TestTasksCreateRejectsInvalidStatus(t *testing.T) {
	store := newMockTaskStore()
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tasks.Create(context.Background(), domain.Task{Title: "x", Status: "blocked"}); err == nil {
		t.Fatal("expected invalid status error")
	}
	if len(tasks.Tasks()) != 0 {
		t.Fatal("mirror should stay empty")
	}
}

func TestTasksStaleFetchDiscarded(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["a"] = []domain.Task{{ID: "from-a", BoardID: "a"}}
	store.tasksBy["b"] = []domain.Task{{ID: "from-b", BoardID: "b"}}
	tasks := newTestTasks(store)

	// While the fetch for board "a" is in flight, the scope moves to "b".
	// The "a" response must not overwrite "b"'s tasks.
	switched := false
	store.onList = func(boardID string) {
		if boardID == "a" && !switched {
			switched = true
			if err := tasks.SetBoard(context.Background(), "b"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	if err := tasks.SetBoard(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := tasks.Tasks()
	if len(got) != 1 || got[0].ID != "from-b" {
		t.Fatalf("expected board b tasks to survive, got %+v", got)
	}
	if tasks.BoardID() != "b" {
		t.Fatalf("expected board b active, got %q", tasks.BoardID())
	}
}

func TestTasksStaleFetchFailureStaysSilent(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b"] = []domain.Task{{ID: "from-b", BoardID: "b"}}
	store.listErrBoard = "a"
	store.listErr = errors.New("boom")
	notify := &recordingNotifier{}
	tasks := NewTasks(store, Session{UserID: "user"}, notify, nil)

	// The scope moves to "b" while the fetch for "a" is in flight, so the
	// "a" failure belongs to a superseded fetch and must not surface.
	switched := false
	store.onList = func(boardID string) {
		if boardID == "a" && !switched {
			switched = true
			if err := tasks.SetBoard(context.Background(), "b"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	if err := tasks.SetBoard(context.Background(), "a"); err != nil {
		t.Fatalf("a superseded fetch failure must not surface: %v", err)
	}
	if len(notify.errors) != 0 {
		t.Fatalf("expected no error notification, got %v", notify.errors)
	}
	got := tasks.Tasks()
	if len(got) != 1 || got[0].ID != "from-b" {
		t.Fatalf("expected board b tasks to survive, got %+v", got)
	}
}

func TestTasksUpdateEmptyPatchSkipsStore(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "t1", Title: "keep", Status: domain.StatusTodo, BoardID: "b1"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current, err := tasks.Update(context.Background(), "t1", domain.TaskUpdate{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Title != "keep" {
		t.Fatalf("expected current mirror entry, got %+v", current)
	}
	if store.updateCount() != 0 {
		t.Fatalf("empty patch must not reach the store, got %d updates", store.updateCount())
	}
}

func TestTasksSetStatusPersists(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "t1", Status: domain.StatusTodo, BoardID: "b1"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.SetStatus("t1", domain.StatusDone)

	task, ok := tasks.Task("t1")
	if !ok || task.Status != domain.StatusDone {
		t.Fatalf("expected done status, got %+v", task)
	}
	if tasks.Pending("t1") {
		t.Fatal("change should be confirmed after persistence")
	}
	if store.updateCount() != 1 {
		t.Fatalf("expected one update, got %d", store.updateCount())
	}
}

func TestTasksSetStatusRevertsOnFailure(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "t1", Status: domain.StatusTodo, BoardID: "b1"}}
	store.updateErr = errors.New("boom")
	notify := &recordingNotifier{}
	tasks := NewTasks(store, Session{UserID: "user"}, notify, nil)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.SetStatus("t1", domain.StatusDone)

	task, ok := tasks.Task("t1")
	if !ok || task.Status != domain.StatusTodo {
		t.Fatalf("expected status reverted to todo, got %+v", task)
	}
	if tasks.Pending("t1") {
		t.Fatal("revert should clear the pending marker")
	}
	if len(notify.errors) != 1 || notify.errors[0] != "Failed to update task" {
		t.Fatalf("unexpected notifications: %v", notify.errors)
	}
}

func TestTasksSetStatusSameStatusNoop(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "t1", Status: domain.StatusTodo, BoardID: "b1"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.SetStatus("t1", domain.StatusTodo)

	if store.updateCount() != 0 {
		t.Fatalf("expected no update, got %d", store.updateCount())
	}
}

func TestTasksMoveForward(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.Move("a", "c")

	assertOrder(t, tasks.Tasks(), []string{"b", "c", "a", "d"})
}

func TestTasksMoveBackward(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.Move("d", "b")

	assertOrder(t, tasks.Tasks(), []string{"a", "d", "b", "c"})
}

func TestTasksMoveMissingTargetNoop(t *testing.T) {
	store := newMockTaskStore()
	store.tasksBy["b1"] = []domain.Task{{ID: "a"}, {ID: "b"}}
	tasks := newTestTasks(store)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks.Move("a", "ghost")
	tasks.Move("a", "a")

	assertOrder(t, tasks.Tasks(), []string{"a", "b"})
}

func assertOrder(t *testing.T, tasks []domain.Task, want []string) {
	t.Helper()
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %+v", len(want), tasks)
	}
	for i, id := range want {
		if tasks[i].ID != id {
			got := make([]string, len(tasks))
			for j := range tasks {
				got[j] = tasks[j].ID
			}
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
