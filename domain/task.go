package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task represents a to-do item. Identity is carried by ID alone; two tasks with
// the same ID are the same task regardless of their other fields.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask builds an active task with a freshly generated identifier.
func NewTask(title, description string) Task {
	t := Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
	t.Touch()
	return t
}

func (t Task) IsActive() bool {
	return !t.Completed
}

// Same reports whether both values describe the same task.
func (t Task) Same(other Task) bool {
	return t.ID == other.ID
}

// IsEmpty reports a task with neither title nor description.
func (t Task) IsEmpty() bool {
	return strings.TrimSpace(t.Title) == "" && strings.TrimSpace(t.Description) == ""
}

// TitleForList returns the title, or the description when no title was given.
func (t Task) TitleForList() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.Description
}

// WithCompleted returns a copy with the completion flag set.
func (t Task) WithCompleted(completed bool) Task {
	t.Completed = completed
	t.Touch()
	return t
}

func (t *Task) Touch() {
	if t == nil {
		return
	}
	t.UpdatedAt = time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}
}
