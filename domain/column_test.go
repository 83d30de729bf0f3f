package domain

import "testing"

func TestPartitionCoversEveryTaskOnce(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusTodo},
		{ID: "b", Status: StatusDone},
		{ID: "c", Status: StatusTodo},
		{ID: "d", Status: StatusProgress},
	}

	cols := Partition(tasks)
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].ID != StatusTodo || cols[1].ID != StatusProgress || cols[2].ID != StatusDone {
		t.Fatalf("unexpected column order: %v %v %v", cols[0].ID, cols[1].ID, cols[2].ID)
	}

	seen := map[string]int{}
	total := 0
	for _, col := range cols {
		for _, task := range col.Tasks {
			if task.Status != col.ID {
				t.Fatalf("task %s with status %s placed in column %s", task.ID, task.Status, col.ID)
			}
			seen[task.ID]++
			total++
		}
	}
	if total != len(tasks) {
		t.Fatalf("expected %d tasks across columns, got %d", len(tasks), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("task %s appeared %d times", id, n)
		}
	}
}

func TestPartitionEmptyBoardIsValid(t *testing.T) {
	cols := Partition(nil)
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns for empty board, got %d", len(cols))
	}
	for _, col := range cols {
		if len(col.Tasks) != 0 {
			t.Fatalf("expected empty column %s", col.ID)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	for _, s := range []TaskStatus{"", "archived", "in-progress", "Done"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
