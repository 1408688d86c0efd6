package domain

// ListState tags the outcome of a full task list read.
type ListState int

const (
	// ListLoaded means a usable collection was produced. A filtered Loaded
	// list may legitimately contain zero tasks.
	ListLoaded ListState = iota
	// ListEmpty means every reachable source answered with nothing stored.
	ListEmpty
	// ListUnavailable means the authoritative source could not be reached.
	ListUnavailable
)

func (s ListState) String() string {
	switch s {
	case ListLoaded:
		return "loaded"
	case ListEmpty:
		return "empty"
	case ListUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

func (s ListState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TaskList is the result of reading the whole collection.
type TaskList struct {
	State ListState `json:"state"`
	Tasks []Task    `json:"tasks"`
}

func Loaded(tasks []Task) TaskList {
	if tasks == nil {
		tasks = []Task{}
	}
	return TaskList{State: ListLoaded, Tasks: tasks}
}

func Empty() TaskList {
	return TaskList{State: ListEmpty}
}

func Unavailable() TaskList {
	return TaskList{State: ListUnavailable}
}

// HasData reports whether the list carries a usable collection.
func (l TaskList) HasData() bool {
	return l.State == ListLoaded
}

// Filter keeps the tasks matching keep. Lists without data are returned as is.
func (l TaskList) Filter(keep func(Task) bool) TaskList {
	if !l.HasData() {
		return l
	}
	out := make([]Task, 0, len(l.Tasks))
	for _, t := range l.Tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return Loaded(out)
}
