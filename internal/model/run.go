package model

import "time"

// RunStatus represents the current state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of a pipeline command, as recorded in the run ledger.
type Run struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      RunStatus  `json:"status"`
	Doors       int        `json:"doors"`
	Valid       int        `json:"valid"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunSummary holds the counts recorded when a run completes.
type RunSummary struct {
	Doors int `json:"doors"`
	Valid int `json:"valid"`
}
