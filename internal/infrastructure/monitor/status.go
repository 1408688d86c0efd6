package monitor

import "time"

// Status is the last observed state of every watched dependency.
type Status struct {
	Sources    map[string]bool `json:"sources"`
	Buffer     bool            `json:"buffer"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// Healthy reports whether every watched source answered its last ping.
func (s Status) Healthy() bool {
	if len(s.Sources) == 0 {
		return false
	}
	for _, ok := range s.Sources {
		if !ok {
			return false
		}
	}
	return true
}
