package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcatool/mca/internal/gitx"
	"github.com/mcatool/mca/internal/models"
	"github.com/mcatool/mca/internal/prompt"
)

// memSaver records every snapshot the workflow persists.
type memSaver struct {
	runs []*models.Run
}

func (s *memSaver) SaveRun(run *models.Run) error {
	s.runs = append(s.runs, run)
	return nil
}

// workflowFixture wires a workflow over a mock backend whose working tree
// contains the given conflicted files.
func workflowFixture(t *testing.T, files map[string]string, answers ...string) (*Workflow, *gitx.MockBackend, *memSaver) {
	t.Helper()
	root := t.TempDir()

	backend := gitx.NewMockBackend()
	backend.Root = root
	backend.Current = "main"
	backend.Branches["main"] = "aaa111aaa111"
	backend.Branches["feature"] = "bbb222bbb222"
	backend.Base["main..feature"] = "mb0mb0mb0"
	backend.Commits["feature..main"] = []models.CommitSummary{
		{ID: "aaa111aaa111", Title: "tighten request validation"},
	}
	backend.Commits["main..feature"] = []models.CommitSummary{
		{ID: "bbb222bbb222", Title: "add retry support"},
	}
	backend.Changed["main"] = map[string]models.ChangeKind{}
	backend.Changed["feature"] = map[string]models.ChangeKind{}

	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		backend.Conflicted = append(backend.Conflicted, path)
		backend.Changed["main"][path] = models.ChangeModified
		backend.Changed["feature"][path] = models.ChangeModified
	}
	backend.BeginMergeConflicts = len(files) > 0

	saver := &memSaver{}
	w := &Workflow{
		Backend:     backend,
		Decider:     &prompt.Scripted{Answers: answers},
		Recommender: NewRecommender(),
		Saver:       saver,
		Out:         &bytes.Buffer{},
		Log:         zerolog.Nop(),
	}
	return w, backend, saver
}

// twoBlockFile carries a block whose incoming side is unfinished and a
// block where only doc comments differ.
func twoBlockFile() string {
	return conflictBlock(
		"func fetch(ctx context.Context, id string) (*Record, error) {",
		"func fetch(id string) (*Record, error) {\n// TODO: plumb context through",
	) + "body\n" + conflictBlock(
		"// fetch retrieves one record by ID.\nreturn get(id)",
		"// fetch loads a single record.\nreturn get(id)",
	)
}

func TestWorkflowRun_EndToEnd(t *testing.T) {
	w, backend, saver := workflowFixture(t, map[string]string{"svc/handler.go": twoBlockFile()}, "approve")
	w.TestCommand = "true"
	w.AutoCommit = true

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)

	assert.Equal(t, models.StateCommitted, run.State)
	assert.Equal(t, "main", run.Base.Name)
	assert.Equal(t, "feature", run.Incoming.Name)
	assert.Equal(t, "mb0mb0mb0", run.MergeBase)

	// one file, two records, two patterns
	require.NotNil(t, run.Plan)
	assert.Equal(t, models.PlanStats{TotalConflicts: 2, FilesAffected: 1, Patterns: 2}, run.Plan.Stats)
	require.Len(t, run.Plan.Props, 2)
	assert.Equal(t, models.StrategyKeepBase, run.Plan.Props[0].Strategy, "finished side wins")
	assert.True(t, run.Plan.Props[0].AnnotateTODO)
	assert.Equal(t, models.StrategyMergeBoth, run.Plan.Props[1].Strategy, "doc-only difference merges")

	content, err := os.ReadFile(filepath.Join(backend.Root, "svc/handler.go"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), markerStart)
	assert.Contains(t, string(content), "// TODO: plumb context through", "dropped TODO annotated")
	assert.Contains(t, string(content), "// fetch retrieves one record by ID.")
	assert.Contains(t, string(content), "// fetch loads a single record.")

	assert.Equal(t, []string{"svc/handler.go"}, backend.StagedPaths)
	assert.Equal(t, []string{"Merge branch 'feature' into main"}, backend.CommitMessages)

	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Test.Passed)
	assert.False(t, run.Result.Overridden)
	require.NotEmpty(t, saver.runs)
	assert.Equal(t, models.StateCommitted, saver.runs[len(saver.runs)-1].State)
}

func TestWorkflowRun_TestFailureNeverCommitsSilently(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		wantState   models.ExecState
		wantAborts  int
		wantCommits int
	}{
		{"abort restores", "abort", models.StateAborted, 1, 0},
		{"pause keeps staged work", "pause-for-manual-fix", models.StatePaused, 0, 0},
		{"continue records override", "continue-anyway", models.StateCommitted, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, backend, _ := workflowFixture(t,
				map[string]string{"a.go": conflictBlock("x := 1", "x := 1\n// FIXME: off by one")},
				"approve", tt.disposition)
			w.TestCommand = "false"
			w.AutoCommit = true

			run, err := w.Run(context.Background(), "feature")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, run.State)
			assert.Equal(t, tt.wantAborts, backend.AbortMergeCalls)
			assert.Len(t, backend.CommitMessages, tt.wantCommits)
			if tt.disposition == "continue-anyway" {
				assert.True(t, run.Result.Overridden)
			}
		})
	}
}

func TestWorkflowRun_NoTestCommandNeverCommitsSilently(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		wantState   models.ExecState
		wantCommits int
	}{
		{"explicit override commits", "continue-anyway", models.StateCommitted, 1},
		{"pause for manual verification", "pause-for-manual-fix", models.StatePaused, 0},
		{"abort restores", "abort", models.StateAborted, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no TestCommand and no build file in the tree to probe
			w, backend, _ := workflowFixture(t,
				map[string]string{"a.go": conflictBlock("x := 1", "x := 1\n// TODO: soon")},
				"approve", tt.disposition)
			w.AutoCommit = true

			run, err := w.Run(context.Background(), "feature")
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, run.State)
			assert.Len(t, backend.CommitMessages, tt.wantCommits)
			assert.False(t, run.Result.Test.Ran)
			if tt.disposition == "continue-anyway" {
				assert.True(t, run.Result.Overridden, "committing unverified is recorded as an override")
			}
		})
	}
}

func TestWorkflowRun_AbortAtApproval(t *testing.T) {
	w, backend, _ := workflowFixture(t,
		map[string]string{"a.go": conflictBlock("x", "y")},
		"abort")

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)
	assert.Equal(t, models.StateAborted, run.State)
	assert.Equal(t, 1, backend.AbortMergeCalls)
	assert.Empty(t, backend.CommitMessages)
}

func TestWorkflowRun_AdjustThenApprove(t *testing.T) {
	w, backend, _ := workflowFixture(t,
		map[string]string{"a.go": conflictBlock("done := true", "done := true\n// TODO: verify")},
		"adjust", "p1", "keep-incoming", "approve")
	w.TestCommand = "true"
	w.AutoCommit = true

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)
	require.NotNil(t, run.Plan)

	prop := run.Plan.Proposal("p1")
	require.NotNil(t, prop)
	assert.Equal(t, models.StrategyKeepIncoming, prop.Strategy)
	assert.Contains(t, prop.Rationale, "selected by user")

	content, err := os.ReadFile(filepath.Join(backend.Root, "a.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "// TODO: verify", "adjusted strategy applied, not the recommendation")
}

func TestWorkflowRun_RejectsConcurrentOperation(t *testing.T) {
	w, backend, _ := workflowFixture(t, nil)
	backend.MergeActive = true

	_, err := w.Run(context.Background(), "feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestWorkflowRun_UnknownBranch(t *testing.T) {
	w, _, _ := workflowFixture(t, nil)
	_, err := w.Run(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestWorkflowRun_CleanMerge(t *testing.T) {
	t.Run("auto commit", func(t *testing.T) {
		w, backend, _ := workflowFixture(t, nil)
		w.AutoCommit = true
		run, err := w.Run(context.Background(), "feature")
		require.NoError(t, err)
		assert.Equal(t, models.StateCommitted, run.State)
		assert.Len(t, backend.CommitMessages, 1)
	})

	t.Run("left staged", func(t *testing.T) {
		w, backend, _ := workflowFixture(t, nil)
		run, err := w.Run(context.Background(), "feature")
		require.NoError(t, err)
		assert.Equal(t, models.StateStaged, run.State)
		assert.Empty(t, backend.CommitMessages)
	})
}

func TestWorkflowRun_MalformedFilePausesForManual(t *testing.T) {
	w, backend, _ := workflowFixture(t, map[string]string{
		"good.go": conflictBlock("a := 1", "a := 1\n// TODO: later"),
		"bad.go":  "<<<<<<< HEAD\norphaned start\n",
	}, "approve")
	w.TestCommand = "true"
	w.AutoCommit = true

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)

	assert.Equal(t, models.StatePaused, run.State, "malformed file defers completion")
	assert.Empty(t, backend.CommitMessages)
	assert.Contains(t, w.Out.(*bytes.Buffer).String(), "bad.go")

	var badOutcome models.FileOutcome
	for _, f := range run.Result.Files {
		if f.Path == "bad.go" {
			badOutcome = f.Outcome
		}
	}
	assert.Equal(t, models.OutcomeStillConflicted, badOutcome)
}

func TestWorkflowRun_MarkerlessUnmergedFileSkipped(t *testing.T) {
	// modify/delete conflicts leave the file unmerged with no marker blocks
	w, backend, _ := workflowFixture(t, map[string]string{
		"good.go":    conflictBlock("a := 1", "a := 1\n// TODO: later"),
		"deleted.go": "package old\n",
	}, "approve")
	w.TestCommand = "true"
	w.AutoCommit = true

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)

	assert.Equal(t, models.StatePaused, run.State)
	assert.Empty(t, backend.CommitMessages)

	var skipped models.FileOutcome
	for _, f := range run.Result.Files {
		if f.Path == "deleted.go" {
			skipped = f.Outcome
		}
	}
	assert.Equal(t, models.OutcomeSkipped, skipped)
}

func TestWorkflowRun_ManualPatternPauses(t *testing.T) {
	w, backend, _ := workflowFixture(t,
		map[string]string{"a.go": conflictBlock("return legacyPath(x)", "return newPath(x, opts)")},
		"approve")

	run, err := w.Run(context.Background(), "feature")
	require.NoError(t, err)

	assert.Equal(t, models.StatePaused, run.State)
	assert.Empty(t, backend.StagedPaths)

	content, err := os.ReadFile(filepath.Join(backend.Root, "a.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), markerStart, "manual blocks stay for the human")
}

func TestWorkflowResume(t *testing.T) {
	t.Run("finishes a paused run", func(t *testing.T) {
		w, backend, _ := workflowFixture(t, nil)
		w.TestCommand = "true"
		w.AutoCommit = true

		run := &models.Run{ID: "r1", Kind: models.AttemptMerge, State: models.StatePaused,
			Base:     models.BranchRef{Name: "main"},
			Incoming: models.BranchRef{Name: "feature"},
		}
		require.NoError(t, w.Resume(context.Background(), run))
		assert.Equal(t, models.StateCommitted, run.State)
		assert.Len(t, backend.CommitMessages, 1)
	})

	t.Run("refuses a finished run", func(t *testing.T) {
		w, _, _ := workflowFixture(t, nil)
		run := &models.Run{ID: "r1", Kind: models.AttemptMerge, State: models.StateAborted}
		err := w.Resume(context.Background(), run)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already finished")
	})

	t.Run("refuses while conflicts remain", func(t *testing.T) {
		w, backend, _ := workflowFixture(t, nil)
		backend.Conflicted = []string{"a.go"}

		run := &models.Run{ID: "r1", Kind: models.AttemptMerge, State: models.StatePaused}
		err := w.Resume(context.Background(), run)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "still conflicted")
	})
}

func TestWorkflowAbort(t *testing.T) {
	w, backend, saver := workflowFixture(t, nil)
	run := &models.Run{ID: "r1", Kind: models.AttemptMerge, State: models.StatePaused}

	require.NoError(t, w.Abort(context.Background(), run))
	assert.Equal(t, models.StateAborted, run.State)
	assert.Equal(t, 1, backend.AbortMergeCalls)
	require.NotEmpty(t, saver.runs)
}
