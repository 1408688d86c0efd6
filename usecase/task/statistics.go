package task

import "github.com/fastygo/taskstore/domain"

// Statistics summarizes the collection for the stats endpoint.
type Statistics struct {
	Available        bool    `json:"available"`
	Active           int     `json:"active"`
	Completed        int     `json:"completed"`
	ActivePercent    float64 `json:"activePercent"`
	CompletedPercent float64 `json:"completedPercent"`
}

// ComputeStatistics counts active and completed tasks. Lists without data
// produce zero values with Available unset.
func ComputeStatistics(list domain.TaskList) Statistics {
	if !list.HasData() {
		return Statistics{}
	}

	stats := Statistics{Available: true}
	for _, t := range list.Tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	if total := len(list.Tasks); total > 0 {
		stats.ActivePercent = 100 * float64(stats.Active) / float64(total)
		stats.CompletedPercent = 100 * float64(stats.Completed) / float64(total)
	}
	return stats
}
