package cli

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/core"
	"github.com/mcatool/mca/internal/prompt"
)

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abort the active run and restore the pre-merge state",
	Run:   runAbort,
}

func runAbort(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	run, err := c.Store.ActiveRun()
	if err != nil {
		exitError("failed to query runs: %v", err)
	}
	if run == nil && !c.Backend.MergeInProgress(ctx) && !c.Backend.RebaseInProgress(ctx) {
		exitError("nothing to abort")
	}

	workflow := &core.Workflow{
		Backend: c.Backend,
		Decider: prompt.Interactive{},
		Saver:   c.Store,
		Out:     os.Stdout,
		Log:     c.Log,
	}

	if run != nil {
		err = workflow.Abort(ctx, run)
	} else if c.Backend.MergeInProgress(ctx) {
		err = c.Backend.AbortMerge(ctx)
	} else {
		err = c.Backend.AbortRebase(ctx)
	}
	if err != nil {
		exitError("%v", err)
	}
	color.New(color.FgGreen).Println("Aborted; working tree restored.")
}
