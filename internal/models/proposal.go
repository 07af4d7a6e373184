package models

// Strategy defines how a pattern's conflicts get resolved
type Strategy string

const (
	StrategyKeepBase     Strategy = "keep-base"     // keep the checked-out side
	StrategyKeepIncoming Strategy = "keep-incoming" // keep the merged-in side
	StrategyMergeBoth    Strategy = "merge-both"    // keep both sides, base first
	StrategyManual       Strategy = "manual"        // leave the block for a human
)

// Alternative is a non-recommended strategy with an estimate of what
// choosing it would touch.
type Alternative struct {
	Strategy Strategy `json:"strategy"`
	Impact   string   `json:"impact"`
}

// StrategyProposal is the recommender's verdict for one pattern. Every
// proposal carries at least one alternative; silent unilateral resolution
// is not an option.
type StrategyProposal struct {
	PatternID    string        `json:"pattern_id"`
	Strategy     Strategy      `json:"strategy"`
	Rationale    string        `json:"rationale"`
	Alternatives []Alternative `json:"alternatives"`

	// AnnotateTODO asks the executor to carry the dropped side's
	// TODO/FIXME lines over into the kept text.
	AnnotateTODO bool `json:"annotate_todo,omitempty"`
}
