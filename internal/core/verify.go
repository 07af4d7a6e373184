package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mcatool/mca/internal/models"
	"github.com/mcatool/mca/internal/prompt"
)

// GateDisposition is the answer to a failed verification run. Exactly four
// are offered; the gate never silently continues or silently aborts.
type GateDisposition string

const (
	DispositionAbort    GateDisposition = "abort"
	DispositionShow     GateDisposition = "show-failures"
	DispositionContinue GateDisposition = "continue-anyway"
	DispositionPause    GateDisposition = "pause-for-manual-fix"
)

// testCommandProbes maps a build file to the project's likely test command.
var testCommandProbes = []struct {
	file    string
	command string
}{
	{"go.mod", "go test ./..."},
	{"package.json", "npm test"},
	{"Cargo.toml", "cargo test"},
	{"pom.xml", "mvn -q test"},
	{"Makefile", "make test"},
}

// ProbeTestCommand guesses the project's test command from build-file
// presence. Returns "" when the project type is unrecognized.
func ProbeTestCommand(root string) string {
	for _, probe := range testCommandProbes {
		if _, err := os.Stat(filepath.Join(root, probe.file)); err == nil {
			return probe.command
		}
	}
	return ""
}

// Gate re-checks the tree and runs the project's test command, gating
// completion. A failing run blocks until the user picks one of the four
// dispositions.
type Gate struct {
	Root    string
	Command string // overrides probing when non-empty
	Decider prompt.Decider
	Out     io.Writer
	Log     zerolog.Logger
}

// Check runs the tests and, on failure, asks for a disposition.
// "show failures" prints the captured output and re-asks, so the returned
// disposition is always abort, continue or pause. A missing test command is
// itself a disposition question: skipping verification must be an explicit
// decision, never the default.
func (g *Gate) Check(ctx context.Context) (models.TestOutcome, GateDisposition, error) {
	command := g.Command
	if command == "" {
		command = ProbeTestCommand(g.Root)
	}
	if command == "" {
		g.Log.Warn().Msg("no test command configured or detected")
		outcome := models.TestOutcome{}
		answer, err := g.Decider.Decide(ctx, prompt.Question{
			Title:  "No test command configured or detected",
			Detail: "set test_command in .mca/config or pass --test-cmd to verify merges",
			Options: []prompt.Option{
				{ID: string(DispositionContinue), Label: "Continue without verification (record an override)"},
				{ID: string(DispositionPause), Label: "Pause and verify manually"},
				{ID: string(DispositionAbort), Label: "Abort and restore the pre-merge state"},
			},
		})
		if err != nil {
			return outcome, DispositionAbort, err
		}
		return outcome, GateDisposition(answer), nil
	}

	outcome, output := runTests(ctx, g.Root, command)
	g.Log.Info().Str("command", command).Bool("passed", outcome.Passed).Msg("verification gate")
	if outcome.Passed {
		return outcome, DispositionContinue, nil
	}

	for {
		answer, err := g.Decider.Decide(ctx, prompt.Question{
			Title:  "Tests failed after applying the plan",
			Detail: outcome.Summary,
			Options: []prompt.Option{
				{ID: string(DispositionAbort), Label: "Abort and restore the pre-merge state"},
				{ID: string(DispositionShow), Label: "Show the test failures"},
				{ID: string(DispositionContinue), Label: "Continue anyway (record an override)"},
				{ID: string(DispositionPause), Label: "Pause for a manual fix"},
			},
		})
		if err != nil {
			return outcome, DispositionAbort, err
		}
		if GateDisposition(answer) == DispositionShow {
			fmt.Fprintln(g.Out, output)
			continue
		}
		return outcome, GateDisposition(answer), nil
	}
}

// runTests invokes the command through the shell and captures combined
// output plus the exit status.
func runTests(ctx context.Context, root, command string) (models.TestOutcome, string) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = root

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	outcome := models.TestOutcome{
		Ran:     true,
		Passed:  err == nil,
		Command: command,
		Summary: tailLines(output, 15),
	}
	return outcome, output
}

// tailLines keeps the last n non-empty lines, where failures usually live.
func tailLines(output string, n int) string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
