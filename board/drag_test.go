package board

import (
	"context"
	"testing"
	"time"

	"github.com/ozzi82/method-flow-command-center/domain"
	"github.com/ozzi82/method-flow-command-center/hooks"
)

type dragStore struct {
	tasks []domain.Task
}

func (s *dragStore) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	return s.tasks, nil
}

func (s *dragStore) InsertTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	return t, nil
}

func (s *dragStore) UpdateTask(ctx context.Context, userID, id string, upd domain.TaskUpdate) (domain.Task, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			if upd.Status != nil {
				t.Status = *upd.Status
			}
			t.UpdatedAt = time.Now()
			return t, nil
		}
	}
	return domain.Task{}, nil
}

func (s *dragStore) DeleteTask(ctx context.Context, userID, boardID, id string) error {
	return nil
}

func TestDragTaskOntoDoneColumn(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	store := &dragStore{tasks: []domain.Task{
		{ID: "t1", Title: "ship it", Status: domain.StatusTodo, BoardID: "b1", UpdatedAt: created},
		{ID: "t2", Title: "later", Status: domain.StatusTodo, BoardID: "b1", UpdatedAt: created},
	}}
	tasks := hooks.NewTasks(store, hooks.Session{UserID: "user"}, nil, nil)
	if err := tasks.SetBoard(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := NewReconciler(tasks)
	r.Begin("t1")
	r.DragOver("t1", string(domain.StatusDone))
	r.End("t1", string(domain.StatusDone))

	moved, ok := tasks.Task("t1")
	if !ok || moved.Status != domain.StatusDone {
		t.Fatalf("expected t1 done, got %+v", moved)
	}
	if !moved.UpdatedAt.After(created) {
		t.Fatalf("expected updated timestamp to advance, got %v", moved.UpdatedAt)
	}

	columns := domain.Partition(tasks.Tasks())
	for _, col := range columns {
		for _, task := range col.Tasks {
			switch task.ID {
			case "t1":
				if col.ID != domain.StatusDone {
					t.Fatalf("t1 should be in the done column, found in %q", col.ID)
				}
			case "t2":
				if col.ID != domain.StatusTodo {
					t.Fatalf("t2 should stay in todo, found in %q", col.ID)
				}
			}
		}
	}
}
