package models

// FileOutcome is the per-file verdict of an execution
type FileOutcome string

const (
	OutcomeResolved        FileOutcome = "resolved"
	OutcomeStillConflicted FileOutcome = "still-conflicted"
	OutcomeSkipped         FileOutcome = "skipped"
)

// FileResult pairs a file with its execution outcome
type FileResult struct {
	Path    string      `json:"path"`
	Outcome FileOutcome `json:"outcome"`
}

// TestOutcome captures one Verification Gate run
type TestOutcome struct {
	Ran     bool   `json:"ran"`
	Passed  bool   `json:"passed"`
	Command string `json:"command"`
	Summary string `json:"summary"`
}

// ExecutionResult is the terminal artifact of one workflow run.
type ExecutionResult struct {
	Files      []FileResult `json:"files"`
	Staged     []string     `json:"staged"`
	Test       TestOutcome  `json:"test"`
	Overridden bool         `json:"overridden"` // gate failure explicitly continued past
}

// Resolved returns how many files ended up resolved.
func (r *ExecutionResult) Resolved() int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == OutcomeResolved {
			n++
		}
	}
	return n
}
