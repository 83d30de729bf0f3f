package domain

// Column groups a board's tasks by status for rendering. Columns are derived,
// never persisted; their identity is the status value itself.
type Column struct {
	ID    TaskStatus `json:"id"`
	Title string     `json:"title"`
	Tasks []Task     `json:"tasks"`
}

var columnTitles = map[TaskStatus]string{
	StatusTodo:     "To Do",
	StatusProgress: "In Progress",
	StatusDone:     "Done",
}

// Partition splits tasks into exactly the three status columns. Every task
// lands in exactly one column; input order is preserved within a column.
func Partition(tasks []Task) []Column {
	cols := make([]Column, 0, len(Statuses))
	byStatus := make(map[TaskStatus][]Task, len(Statuses))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}
	for _, s := range Statuses {
		cols = append(cols, Column{ID: s, Title: columnTitles[s], Tasks: byStatus[s]})
	}
	return cols
}
