package models

// BranchRef is an immutable snapshot of a branch taken when an analysis
// starts. Name resolution happens once; later movement of the real branch
// does not affect a running workflow.
type BranchRef struct {
	Name     string `json:"name"`
	CommitID string `json:"commit_id"`
	Remote   string `json:"remote,omitempty"` // tracking remote, if any
}

// ShortID returns a shortened commit ID (first 8 characters)
func (b BranchRef) ShortID() string {
	if len(b.CommitID) > 8 {
		return b.CommitID[:8]
	}
	return b.CommitID
}
