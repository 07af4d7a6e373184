package core

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mcatool/mca/internal/models"
)

// BuildPlan assembles one reviewable plan from the clustered patterns and
// their proposals. Proposals keep pattern order; statistics cover every
// extracted record with no omissions.
func BuildPlan(div *models.Divergence, patterns []*models.ConflictPattern, proposals []models.StrategyProposal) *models.ResolutionPlan {
	plan := &models.ResolutionPlan{
		ID:       uuid.NewString(),
		Base:     div.Base,
		Incoming: div.Incoming,
		Props:    proposals,
	}
	plan.Stats = computeStats(patterns)
	plan.Label = planLabel(plan)
	return plan
}

// AdjustPlan returns a copy of the plan with exactly one proposal's
// strategy replaced. The original plan is never mutated, so a
// "show alternatives, pick, regenerate" loop needs no re-extraction.
func AdjustPlan(plan *models.ResolutionPlan, patternID string, strategy models.Strategy) (*models.ResolutionPlan, error) {
	adjusted := &models.ResolutionPlan{
		ID:       uuid.NewString(),
		Base:     plan.Base,
		Incoming: plan.Incoming,
		Props:    make([]models.StrategyProposal, len(plan.Props)),
		Stats:    plan.Stats,
	}
	found := false
	for i, prop := range plan.Props {
		// copy the alternatives so the originals stay untouched
		prop.Alternatives = append([]models.Alternative(nil), prop.Alternatives...)
		if prop.PatternID == patternID {
			found = true
			if prop.Strategy != strategy {
				previous := prop.Strategy
				prop.Strategy = strategy
				prop.Rationale = fmt.Sprintf("selected by user (recommended: %s)", previous)
				prop.AnnotateTODO = false
				if !hasAlternative(prop.Alternatives, previous) {
					prop.Alternatives = append(prop.Alternatives, models.Alternative{
						Strategy: previous,
						Impact:   "original recommendation",
					})
				}
			}
		}
		adjusted.Props[i] = prop
	}
	if !found {
		return nil, fmt.Errorf("no pattern %q in plan", patternID)
	}
	adjusted.Label = planLabel(adjusted)
	return adjusted, nil
}

func hasAlternative(alts []models.Alternative, s models.Strategy) bool {
	for _, a := range alts {
		if a.Strategy == s {
			return true
		}
	}
	return false
}

func computeStats(patterns []*models.ConflictPattern) models.PlanStats {
	stats := models.PlanStats{Patterns: len(patterns)}
	files := make(map[string]bool)
	for _, p := range patterns {
		stats.TotalConflicts += p.Occurrences()
		for _, f := range p.Files() {
			files[f] = true
		}
	}
	stats.FilesAffected = len(files)
	return stats
}

func planLabel(plan *models.ResolutionPlan) string {
	switch manual := plan.ManualCount(); {
	case manual == 0:
		return "automatic"
	case manual == len(plan.Props):
		return "manual"
	default:
		return "mixed"
	}
}
