package store

import "time"

type Setting struct {
	Key   string
	Value string
}

// RunStatus is the lifecycle of one logged countdown.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
)

// Run is one countdown in the history log.
type Run struct {
	ID           int64
	Mode         string
	Input        string
	TotalMinutes float64
	TargetMinute *float64
	StartedAt    time.Time
	EndedAt      *time.Time
	Status       RunStatus
	ByWatchdog   bool
}

// Elapsed is the wall time the run covered, capped at its planned length.
// Running runs report zero.
func (r Run) Elapsed() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	d := r.EndedAt.Sub(r.StartedAt)
	planned := time.Duration(r.TotalMinutes * float64(time.Minute))
	if d > planned {
		d = planned
	}
	if d < 0 {
		d = 0
	}
	return d
}

// RunFilter is used to filter runs in queries.
type RunFilter struct {
	Status *RunStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailyTotal aggregates finished runs per day.
type DailyTotal struct {
	Date      string
	Minutes   float64
	Completed int
	Cancelled int
}
