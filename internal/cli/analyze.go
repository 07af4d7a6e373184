package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/core"
	"github.com/mcatool/mca/internal/models"
	"github.com/mcatool/mca/internal/prompt"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <branch>",
	Short: "Analyze and merge a branch with a reviewed resolution plan",
	Long: `Analyze the divergence between the current branch and <branch>, attempt
the merge, and walk the resulting conflicts through pattern clustering,
strategy recommendation and plan approval before anything is rewritten.

After the plan is applied the project's tests gate completion: the merge is
only committed on a passing run or an explicit override.

Examples:
  mca analyze feature             # advise on merging 'feature' into the current branch
  mca analyze --commit feature    # commit automatically once the gate passes
  mca analyze --test-cmd "make check" feature`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

var (
	analyzeCommit  bool
	analyzeTestCmd string
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeCommit, "commit", false, "Commit automatically after the verification gate passes")
	analyzeCmd.Flags().StringVar(&analyzeTestCmd, "test-cmd", "", "Test command for the verification gate (default: probe build files)")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	testCmd := analyzeTestCmd
	if testCmd == "" {
		testCmd = c.Config.TestCommand
	}

	workflow := &core.Workflow{
		Backend:     c.Backend,
		Decider:     prompt.Interactive{},
		Recommender: core.NewRecommender(),
		Saver:       c.Store,
		Render:      renderPlan,
		Out:         os.Stdout,
		Log:         c.Log,
		TestCommand: testCmd,
		AutoCommit:  analyzeCommit || c.Config.AutoCommit,
	}

	run, err := workflow.Run(ctx, args[0])
	if err != nil {
		exitError("%v", err)
	}
	reportRun(run)
}

// reportRun prints the human-readable outcome of one workflow run.
func reportRun(run *models.Run) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	if run == nil {
		return
	}
	switch run.State {
	case models.StateCommitted:
		green.Printf("Merged %s into %s and committed.\n", run.Incoming.Name, run.Base.Name)
	case models.StateStaged:
		green.Printf("Merged %s into %s; changes are staged.\n", run.Incoming.Name, run.Base.Name)
		fmt.Println("Run 'mca continue' to verify and commit, or 'mca abort' to restore.")
	case models.StatePaused:
		yellow.Println("Run paused for review.")
		if run.Result != nil {
			for _, f := range run.Result.Files {
				if f.Outcome != models.OutcomeResolved {
					yellow.Printf("  %s: %s\n", f.Path, f.Outcome)
				}
			}
		}
		fmt.Println("Finish the remaining work, then run 'mca continue' (or 'mca abort').")
	case models.StateAborted:
		red.Println("Aborted; the working tree was restored to its pre-merge state.")
	}

	if run.Result != nil && run.Result.Test.Ran {
		if run.Result.Test.Passed {
			green.Printf("Tests passed (%s)\n", run.Result.Test.Command)
		} else if run.Result.Overridden {
			yellow.Printf("Tests failed (%s); continued on explicit override\n", run.Result.Test.Command)
		} else {
			red.Printf("Tests failed (%s)\n", run.Result.Test.Command)
		}
	}
}
