package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/core"
	"github.com/mcatool/mca/internal/prompt"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Finish a paused run: verify and commit",
	Long: `Resume the newest paused or staged run. Every file must be free of
conflict markers by now; the verification gate runs again before the merge
commit is created.`,
	Run: runContinue,
}

var continueCommit bool

func init() {
	continueCmd.Flags().BoolVar(&continueCommit, "commit", true, "Commit once the verification gate passes")
}

func runContinue(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	run, err := c.Store.ActiveRun()
	if err != nil {
		exitError("failed to query runs: %v", err)
	}
	if run == nil {
		exitError("no paused run to continue")
	}

	workflow := &core.Workflow{
		Backend:     c.Backend,
		Decider:     prompt.Interactive{},
		Recommender: core.NewRecommender(),
		Saver:       c.Store,
		Out:         os.Stdout,
		Log:         c.Log,
		TestCommand: c.Config.TestCommand,
		AutoCommit:  continueCommit,
	}

	if err := workflow.Resume(ctx, run); err != nil {
		exitError("%v", err)
	}
	reportRun(run)
}
