// Package board turns drag gesture events into task mutations. The reconciler
// is a per-gesture state machine (Idle -> Dragging -> Idle) over a task list
// view; status changes apply optimistically mid-gesture so the card lands in
// its column with no visible latency.
package board

import (
	"sync"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// TaskView is the slice of the tasks hook the reconciler drives. SetStatus and
// Move mutate the in-memory mirror; persistence is the view's concern.
type TaskView interface {
	Task(id string) (domain.Task, bool)
	SetStatus(id string, status domain.TaskStatus)
	Move(sourceID, targetID string)
}

// Reconciler tracks the active drag gesture and applies its effects.
type Reconciler struct {
	view TaskView

	mu     sync.Mutex
	active string
}

func NewReconciler(view TaskView) *Reconciler {
	return &Reconciler{view: view}
}

// Active returns the task being dragged, if any.
func (r *Reconciler) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// Begin records the dragged task. No data side effect.
func (r *Reconciler) Begin(taskID string) {
	r.mu.Lock()
	r.active = taskID
	r.mu.Unlock()
}

// DragOver applies the optimistic cross-column move while the card is still
// in flight. Hovering a column whose status differs from the dragged task's,
// or a task that lives in a different column, moves the task there
// immediately. Same-status hovers are a no-op until drop.
func (r *Reconciler) DragOver(taskID, targetID string) {
	if targetID == "" || taskID == targetID {
		return
	}
	task, ok := r.view.Task(taskID)
	if !ok {
		return
	}
	if status, isColumn := columnStatus(targetID); isColumn {
		if task.Status != status {
			r.view.SetStatus(taskID, status)
		}
		return
	}
	target, ok := r.view.Task(targetID)
	if !ok {
		return
	}
	if target.Status != task.Status {
		r.view.SetStatus(taskID, target.Status)
	}
}

// End closes the gesture. A column target needs no further action (DragOver
// already applied the status change). A task target in the same column
// reorders the list: the dragged task is removed from its old position and
// inserted at the target's. Dropping a task onto itself is a no-op.
func (r *Reconciler) End(taskID, targetID string) {
	r.clear()
	if targetID == "" || taskID == targetID {
		return
	}
	if _, isColumn := columnStatus(targetID); isColumn {
		return
	}
	task, ok := r.view.Task(taskID)
	if !ok {
		return
	}
	target, ok := r.view.Task(targetID)
	if !ok {
		return
	}
	if task.Status == target.Status {
		r.view.Move(taskID, targetID)
	}
}

// Cancel closes the gesture without a drop target. Any optimistic status
// change already applied during DragOver stands; there is no gesture-level
// rollback.
func (r *Reconciler) Cancel(taskID string) {
	r.clear()
}

func (r *Reconciler) clear() {
	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()
}

// columnStatus resolves a drop target that identifies a status column. Column
// identifiers are exactly the three status values; anything else is a task ID.
func columnStatus(targetID string) (domain.TaskStatus, bool) {
	s := domain.TaskStatus(targetID)
	return s, s.Valid()
}
