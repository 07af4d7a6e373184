package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active advisory run and merge state",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	branch, err := c.Backend.CurrentBranch(ctx)
	if err == nil {
		fmt.Printf("On branch %s\n", branch)
	}

	yellow := color.New(color.FgYellow)
	if c.Backend.MergeInProgress(ctx) {
		yellow.Println("A merge is in progress.")
	}
	if c.Backend.RebaseInProgress(ctx) {
		yellow.Println("A rebase is in progress.")
	}

	run, err := c.Store.ActiveRun()
	if err != nil {
		exitError("failed to query runs: %v", err)
	}
	if run == nil {
		fmt.Println("No active advisory run.")
		return
	}

	fmt.Printf("Active run %s: merging %s into %s, state %s\n",
		shortID(run.ID), run.Incoming.Name, run.Base.Name, run.State)
	if run.Plan != nil {
		fmt.Printf("Plan: %d conflicts, %d files, %d patterns (%s)\n",
			run.Plan.Stats.TotalConflicts, run.Plan.Stats.FilesAffected,
			run.Plan.Stats.Patterns, run.Plan.Label)
	}
	if run.Result != nil {
		for _, f := range run.Result.Files {
			if f.Outcome != models.OutcomeResolved {
				yellow.Printf("  %s: %s\n", f.Path, f.Outcome)
			}
		}
	}
	fmt.Println("Run 'mca continue' to finish or 'mca abort' to restore.")
}
