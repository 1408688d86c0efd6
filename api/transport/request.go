package transport

// TaskRequest is the body accepted by create and update.
type TaskRequest struct {
	Title       string `json:"title" validate:"max=256"`
	Description string `json:"description" validate:"max=4096"`
}
