package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/mcatool/mca/internal/models"
)

// renderPlan prints a resolution plan for review: one block per pattern
// with its recommendation, rationale and alternatives.
func renderPlan(plan *models.ResolutionPlan, patterns []*models.ConflictPattern) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	bold.Printf("\nResolution plan: %s -> %s\n", plan.Incoming.Name, plan.Base.Name)
	fmt.Printf("%d conflicts in %d files, %d patterns (%s)\n\n",
		plan.Stats.TotalConflicts, plan.Stats.FilesAffected, plan.Stats.Patterns, plan.Label)

	for _, p := range patterns {
		prop := plan.Proposal(p.ID)
		if prop == nil {
			continue
		}
		cyan.Printf("%s  %s\n", p.ID, p.Description)
		strategyColor := color.New(color.FgGreen)
		if prop.Strategy == models.StrategyManual {
			strategyColor = yellow
		}
		strategyColor.Printf("    recommend: %s\n", prop.Strategy)
		fmt.Printf("    why: %s\n", prop.Rationale)
		for _, alt := range prop.Alternatives {
			faint.Printf("    alt: %s (%s)\n", alt.Strategy, alt.Impact)
		}
		for _, file := range p.Files() {
			faint.Printf("    in: %s\n", file)
		}
		fmt.Println()
	}
}
