package models

import "time"

// SweepProgress is the observable state of a reconciliation sweep.
type SweepProgress struct {
	Current     int        `json:"current"`
	Total       int        `json:"total"`
	IsRunning   bool       `json:"isRunning"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SweepOutcome summarises how a sweep request ended.
type SweepOutcome string

const (
	SweepOutcomeCompleted   SweepOutcome = "completed"
	SweepOutcomeEmpty       SweepOutcome = "empty"
	SweepOutcomeUnreachable SweepOutcome = "unreachable"
	SweepOutcomeBusy        SweepOutcome = "busy"
	SweepOutcomeCancelled   SweepOutcome = "cancelled"
	SweepOutcomeAborted     SweepOutcome = "aborted"
)

// SweepReport is returned to callers once a sweep has finished or been refused.
type SweepReport struct {
	Outcome       SweepOutcome `json:"outcome"`
	Total         int          `json:"total"`
	Checked       int          `json:"checked"`
	Available     int          `json:"available"`
	Failed        int          `json:"failed"`
	WriteFailures int          `json:"writeFailures"`
	Duration      string       `json:"duration,omitempty"`
}
