package core

import (
	"fmt"
	"strings"

	"github.com/mcatool/mca/internal/models"
)

// SideSignals are the per-side inputs to completeness scoring.
type SideSignals struct {
	HasTODO     bool
	Occurrences int
	Files       int
	Commits     int
}

// Scorer rates how "complete" one side of a pattern looks. The relative
// weighting between completeness signals is judgment, so it is a pluggable
// function rather than a fixed formula.
type Scorer func(SideSignals) float64

// DefaultScorer: absence of TODO/FIXME dominates; breadth of occurrence is
// the tiebreak.
func DefaultScorer(s SideSignals) float64 {
	score := 0.0
	if !s.HasTODO {
		score += 1.0
	}
	if s.Files > 1 {
		score += 0.25
	}
	if s.Occurrences > 2 {
		score += 0.25
	}
	return score
}

// Recommender turns one pattern into one proposal using an ordered policy:
//  1. one side finished, other carrying TODO/FIXME -> keep the finished
//     side, preserve the unfinished side's TODO text as an annotation
//  2. pure documentation difference -> merge both
//  3. otherwise -> manual, with both sides listed as alternatives
//
// Every proposal carries at least one alternative; the advisor never
// resolves unilaterally without naming what else was possible.
type Recommender struct {
	Score Scorer
}

// NewRecommender returns a Recommender with the default scorer.
func NewRecommender() *Recommender {
	return &Recommender{Score: DefaultScorer}
}

// Recommend produces the proposal for one pattern.
func (rec *Recommender) Recommend(p *models.ConflictPattern, div *models.Divergence) models.StrategyProposal {
	baseSignals := SideSignals{
		HasTODO:     p.BaseHasTODO(),
		Occurrences: p.Occurrences(),
		Files:       len(p.Files()),
		Commits:     len(div.BaseOnly),
	}
	incomingSignals := baseSignals
	incomingSignals.HasTODO = p.IncomingHasTODO()
	incomingSignals.Commits = len(div.IncomingOnly)

	baseIntent := models.Intent(div.BaseOnly)
	incomingIntent := models.Intent(div.IncomingOnly)

	// Rule 1: completeness asymmetry.
	if baseSignals.HasTODO != incomingSignals.HasTODO {
		keep, drop := models.StrategyKeepBase, models.StrategyKeepIncoming
		keptName, droppedName := div.Base.Name, div.Incoming.Name
		keptIntent := baseIntent
		if rec.Score(incomingSignals) > rec.Score(baseSignals) {
			keep, drop = models.StrategyKeepIncoming, models.StrategyKeepBase
			keptName, droppedName = div.Incoming.Name, div.Base.Name
			keptIntent = incomingIntent
		}
		return models.StrategyProposal{
			PatternID: p.ID,
			Strategy:  keep,
			Rationale: fmt.Sprintf("%s carries completed work (%s); %s still has TODO/FIXME markers, kept as an annotation",
				keptName, keptIntent, droppedName),
			AnnotateTODO: true,
			Alternatives: []models.Alternative{
				{Strategy: drop, Impact: impact(droppedName, p)},
				{Strategy: models.StrategyManual, Impact: "review each block by hand"},
			},
		}
	}

	// Rule 2: both sides additive documentation.
	if p.Kind == models.KindDocumentation {
		return models.StrategyProposal{
			PatternID: p.ID,
			Strategy:  models.StrategyMergeBoth,
			Rationale: "only comment/doc lines differ; both additions can coexist",
			Alternatives: []models.Alternative{
				{Strategy: models.StrategyKeepBase, Impact: impact(div.Base.Name, p)},
				{Strategy: models.StrategyKeepIncoming, Impact: impact(div.Incoming.Name, p)},
			},
		}
	}

	// Rule 3: neither side dominates.
	return models.StrategyProposal{
		PatternID: p.ID,
		Strategy:  models.StrategyManual,
		Rationale: fmt.Sprintf("neither side dominates by completeness; base: %s / incoming: %s", baseIntent, incomingIntent),
		Alternatives: []models.Alternative{
			{Strategy: models.StrategyKeepBase, Impact: impact(div.Base.Name, p)},
			{Strategy: models.StrategyKeepIncoming, Impact: impact(div.Incoming.Name, p)},
		},
	}
}

// impact estimates what choosing one side would touch.
func impact(side string, p *models.ConflictPattern) string {
	files := p.Files()
	return fmt.Sprintf("choosing %s affects %d block(s) in %s", side, p.Occurrences(), strings.Join(files, ", "))
}
