package models

// Divergence is the commit- and file-level difference between two branches
// relative to their merge-base. Computed once per run.
type Divergence struct {
	Base         BranchRef       `json:"base"`
	Incoming     BranchRef       `json:"incoming"`
	MergeBase    string          `json:"merge_base"`
	BaseOnly     []CommitSummary `json:"base_only"`     // commits on base, absent from incoming
	IncomingOnly []CommitSummary `json:"incoming_only"` // commits on incoming, absent from base
	Contested    []string        `json:"contested"`     // files modified by both sides
}

// Intent summarizes one side's commit titles into a short free-text line.
// The recommender folds these into proposal rationales.
func Intent(commits []CommitSummary) string {
	const maxTitles = 3
	var titles []string
	for _, c := range commits {
		titles = append(titles, c.Title)
		if len(titles) == maxTitles {
			break
		}
	}
	if len(titles) == 0 {
		return "no commits"
	}
	out := titles[0]
	for _, t := range titles[1:] {
		out += "; " + t
	}
	if len(commits) > maxTitles {
		out += "; ..."
	}
	return out
}
