package task

import (
	"strings"

	"github.com/fastygo/taskstore/domain"
)

// Filter selects which tasks a listing shows.
type Filter string

const (
	FilterAll       Filter = "ALL"
	FilterActive    Filter = "ACTIVE"
	FilterCompleted Filter = "COMPLETED"
)

// ParseFilter accepts the filter names case-insensitively. An empty value
// means FilterAll.
func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", domain.WrapError(domain.ErrCodeInvalid, "unknown filter", domain.ErrInvalidPayload)
	}
}

func (f Filter) keep(t domain.Task) bool {
	switch f {
	case FilterActive:
		return t.IsActive()
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply narrows list to the filter. A Loaded list stays Loaded even when no
// task matches.
func (f Filter) Apply(list domain.TaskList) domain.TaskList {
	if f == FilterAll || f == "" {
		return list
	}
	return list.Filter(f.keep)
}
