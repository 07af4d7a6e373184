package models

// ConflictPattern is a cluster of structurally similar conflicts presumed
// to share one resolution. Rebuilt on every analysis run; member records
// are referenced, not owned.
type ConflictPattern struct {
	ID          string            `json:"id"`
	Kind        ConflictKind      `json:"kind"`
	Description string            `json:"description"`
	Records     []*ConflictRecord `json:"records"`
}

// Occurrences returns the member count.
func (p *ConflictPattern) Occurrences() int {
	return len(p.Records)
}

// Files returns the distinct file paths of the member records, in
// first-seen order.
func (p *ConflictPattern) Files() []string {
	seen := make(map[string]bool, len(p.Records))
	var files []string
	for _, r := range p.Records {
		if !seen[r.Path] {
			seen[r.Path] = true
			files = append(files, r.Path)
		}
	}
	return files
}

// BaseHasTODO reports whether any member's base side looks unfinished.
func (p *ConflictPattern) BaseHasTODO() bool {
	for _, r := range p.Records {
		if r.BaseHasTODO() {
			return true
		}
	}
	return false
}

// IncomingHasTODO reports whether any member's incoming side looks unfinished.
func (p *ConflictPattern) IncomingHasTODO() bool {
	for _, r := range p.Records {
		if r.IncomingHasTODO() {
			return true
		}
	}
	return false
}
