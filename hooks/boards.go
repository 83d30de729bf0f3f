package hooks

import (
	"context"
	"errors"
	"sync"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// ErrLastBoard is returned when deleting the user's only remaining board.
// The dashboard always keeps at least one board per user.
var ErrLastBoard = errors.New("cannot delete the last remaining board")

// BoardStore is the persistence surface the boards hook needs.
type BoardStore interface {
	ListBoards(ctx context.Context, userID string) ([]domain.Board, error)
	InsertBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error)
	UpdateBoard(ctx context.Context, userID, id string, upd domain.BoardUpdate) (domain.Board, error)
	DeleteBoard(ctx context.Context, userID, id string) error
	DeleteBoardTasks(ctx context.Context, userID, boardID string) error
}

// Boards fetches and mutates the user's boards, maintaining an in-memory
// mirror for rendering. All failures are reported through the notifier and
// leave the mirror unchanged.
type Boards struct {
	store   BoardStore
	session Session
	notify  Notifier

	mu     sync.Mutex
	mirror []domain.Board
}

func NewBoards(store BoardStore, session Session, notify Notifier) *Boards {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Boards{store: store, session: session, notify: notify}
}

// Boards returns a copy of the current mirror.
func (b *Boards) Boards() []domain.Board {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Board, len(b.mirror))
	copy(out, b.mirror)
	return out
}

// Refresh re-fetches the user's boards, newest first.
func (b *Boards) Refresh(ctx context.Context) error {
	if b.session.Anonymous() {
		return nil
	}
	boards, err := b.store.ListBoards(ctx, b.session.UserID)
	if err != nil {
		b.notify.Error("Error", "Failed to fetch boards")
		return err
	}
	b.mu.Lock()
	b.mirror = boards
	b.mu.Unlock()
	return nil
}

// Create inserts a board and prepends it to the mirror.
func (b *Boards) Create(ctx context.Context, name, description, color string) (domain.Board, error) {
	if b.session.Anonymous() {
		return domain.Board{}, nil
	}
	created, err := b.store.InsertBoard(ctx, b.session.UserID, domain.Board{
		Name:        name,
		Description: description,
		Color:       color,
	})
	if err != nil {
		b.notify.Error("Error", "Failed to create board")
		return domain.Board{}, err
	}
	b.mu.Lock()
	b.mirror = append([]domain.Board{created}, b.mirror...)
	b.mu.Unlock()
	b.notify.Success("Success", "Board created successfully")
	return created, nil
}

// Update patches the named fields only and replaces the mirror entry. An
// empty patch returns the current mirror entry without a store call.
func (b *Boards) Update(ctx context.Context, id string, upd domain.BoardUpdate) (domain.Board, error) {
	if b.session.Anonymous() {
		return domain.Board{}, nil
	}
	if upd.Empty() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, board := range b.mirror {
			if board.ID == id {
				return board, nil
			}
		}
		return domain.Board{}, nil
	}
	updated, err := b.store.UpdateBoard(ctx, b.session.UserID, id, upd)
	if err != nil {
		b.notify.Error("Error", "Failed to update board")
		return domain.Board{}, err
	}
	b.mu.Lock()
	for i := range b.mirror {
		if b.mirror[i].ID == id {
			b.mirror[i] = updated
			break
		}
	}
	b.mu.Unlock()
	return updated, nil
}

// Delete removes a board and all of its tasks. Deleting the user's only
// remaining board is refused. The task cascade is enforced here; the table
// service provides no cascade of its own.
func (b *Boards) Delete(ctx context.Context, id string) error {
	if b.session.Anonymous() {
		return nil
	}
	b.mu.Lock()
	remaining := len(b.mirror)
	b.mu.Unlock()
	if remaining <= 1 {
		b.notify.Error("Error", "You must keep at least one board")
		return ErrLastBoard
	}
	if err := b.store.DeleteBoardTasks(ctx, b.session.UserID, id); err != nil {
		b.notify.Error("Error", "Failed to delete board")
		return err
	}
	if err := b.store.DeleteBoard(ctx, b.session.UserID, id); err != nil {
		b.notify.Error("Error", "Failed to delete board")
		return err
	}
	b.mu.Lock()
	for i := range b.mirror {
		if b.mirror[i].ID == id {
			b.mirror = append(b.mirror[:i], b.mirror[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	b.notify.Success("Success", "Board deleted successfully")
	return nil
}
