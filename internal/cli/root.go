// Package cli implements the command-line interface for mca.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcatool/mca/internal/config"
	"github.com/mcatool/mca/internal/gitx"
	"github.com/mcatool/mca/internal/logging"
	"github.com/mcatool/mca/internal/store"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Root    string
	Config  *config.Config
	Store   *store.Store
	Backend gitx.Backend
	Log     zerolog.Logger
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext locates the repository, loads config and opens the run store
func initContext(ctx context.Context) *cmdContext {
	probe := gitx.New(".", zerolog.Nop())
	root, err := probe.RepoRoot(ctx)
	if err != nil {
		exitError("not in a git repository")
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitError("%v", err)
	}

	log := logging.New(cfg.LogPath(), cfg.LogLevel, verboseFlag)

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open run store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize run store: %v", err)
	}

	return &cmdContext{
		Root:    root,
		Config:  cfg,
		Store:   st,
		Backend: gitx.New(root, log),
		Log:     log,
	}
}

var rootCmd = &cobra.Command{
	Use:   "mca",
	Short: "Merge Conflict Advisor",
	Long: `mca analyzes the divergence between two branches, attempts the merge,
clusters the resulting conflicts into patterns, and proposes a resolution
strategy per pattern. Nothing is rewritten until the plan is approved, and
completion is gated on the project's tests.`,
}

var verboseFlag bool

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Echo the structured log to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(continueCmd)
	rootCmd.AddCommand(abortCmd)
	rootCmd.AddCommand(runsCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
