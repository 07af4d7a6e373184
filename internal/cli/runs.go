package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/models"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past advisory runs",
	Run:   runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	runs, err := c.Store.ListRuns(runsLimit)
	if err != nil {
		exitError("failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	for _, run := range runs {
		stateColor := color.New(color.FgYellow)
		switch run.State {
		case models.StateCommitted:
			stateColor = color.New(color.FgGreen)
		case models.StateAborted:
			stateColor = color.New(color.FgRed)
		}

		fmt.Printf("%s  %s  %s -> %s  ", shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Incoming.Name, run.Base.Name)
		stateColor.Printf("%s", run.State)
		if run.Plan != nil {
			fmt.Printf("  (%d conflicts, %d patterns)", run.Plan.Stats.TotalConflicts, run.Plan.Stats.Patterns)
		}
		fmt.Println()
	}
}
