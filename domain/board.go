package domain

import "time"

// Board is a named collection of tasks with a color tag. A board is owned by
// exactly one user.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BoardUpdate carries a partial board patch. Nil fields are left untouched.
type BoardUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (u BoardUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Color == nil
}
