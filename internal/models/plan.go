package models

// PlanStats are the aggregate numbers shown with a plan
type PlanStats struct {
	TotalConflicts int `json:"total_conflicts"`
	FilesAffected  int `json:"files_affected"`
	Patterns       int `json:"patterns"`
}

// ResolutionPlan is the reviewable output of one analysis: one proposal per
// pattern, in pattern order. Immutable once presented; adjustments produce
// a new plan.
type ResolutionPlan struct {
	ID       string             `json:"id"`
	Base     BranchRef          `json:"base"`
	Incoming BranchRef          `json:"incoming"`
	Props    []StrategyProposal `json:"proposals"`
	Stats    PlanStats          `json:"stats"`
	Label    string             `json:"label"` // overall strategy label: automatic, mixed, manual
}

// Proposal returns the proposal for the given pattern id, or nil.
func (p *ResolutionPlan) Proposal(patternID string) *StrategyProposal {
	for i := range p.Props {
		if p.Props[i].PatternID == patternID {
			return &p.Props[i]
		}
	}
	return nil
}

// ManualCount returns how many proposals defer to a human.
func (p *ResolutionPlan) ManualCount() int {
	n := 0
	for _, prop := range p.Props {
		if prop.Strategy == StrategyManual {
			n++
		}
	}
	return n
}
