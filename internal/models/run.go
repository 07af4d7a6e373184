package models

import "time"

// ExecState is the resolution executor's state machine position
type ExecState string

const (
	StatePlanned   ExecState = "planned"
	StateApplying  ExecState = "applying"
	StateStaged    ExecState = "staged"
	StateCommitted ExecState = "committed"
	StatePaused    ExecState = "paused-for-review"
	StateAborted   ExecState = "aborted"
)

// Terminal reports whether the state ends a run.
func (s ExecState) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// AttemptKind says which backend operation produced the conflicts
type AttemptKind string

const (
	AttemptMerge  AttemptKind = "merge"
	AttemptRebase AttemptKind = "rebase"
)

// Run is the persistable snapshot of one workflow run. A paused run is
// written to the store so a later invocation can finish or abort it.
type Run struct {
	ID        string           `json:"id"`
	Kind      AttemptKind      `json:"kind"`
	State     ExecState        `json:"state"`
	Base      BranchRef        `json:"base"`
	Incoming  BranchRef        `json:"incoming"`
	MergeBase string           `json:"merge_base"`
	Plan      *ResolutionPlan  `json:"plan,omitempty"`
	Result    *ExecutionResult `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
