package models

// ChangeKind classifies how a commit touched a file
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

// FileChange is one changed-file entry of a commit
type FileChange struct {
	Path    string     `json:"path"`
	Kind    ChangeKind `json:"kind"`
	Added   int        `json:"added"`
	Removed int        `json:"removed"`
}

// CommitSummary describes one commit on exactly one side of a divergence.
// Produced once per analysis and never mutated afterwards.
type CommitSummary struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Body  string       `json:"body,omitempty"`
	Files []FileChange `json:"files"`
}

// ShortID returns a shortened commit ID (first 8 characters)
func (c *CommitSummary) ShortID() string {
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

// TouchedPaths returns the set of file paths this commit changed.
func (c *CommitSummary) TouchedPaths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.Path)
	}
	return paths
}
