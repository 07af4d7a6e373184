package gitx

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcatool/mca/internal/models"
)

// fakeRunner replays canned outputs keyed by the joined argument list.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if err, ok := r.errs[key]; ok {
		return "", err
	}
	out, ok := r.outputs[key]
	if !ok {
		return "", &BackendError{Args: args, Stderr: "unexpected invocation", ExitCode: 128}
	}
	return strings.TrimSpace(out), nil
}

func newFakeGit() (*Git, *fakeRunner) {
	runner := &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
	return NewWithRunner(runner, "/repo"), runner
}

func TestBranchExists(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["rev-parse --verify --quiet refs/heads/main"] = "aaa111"
	runner.errs["rev-parse --verify --quiet refs/heads/gone"] =
		&BackendError{Args: []string{"rev-parse"}, ExitCode: 1}

	ok, err := g.BranchExists(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.BranchExists(context.Background(), "gone")
	require.NoError(t, err, "a nonzero exit is absence, not failure")
	assert.False(t, ok)
}

func TestTrackingRemote(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["rev-parse --abbrev-ref --symbolic-full-name main@{upstream}"] = "origin/main"

	assert.Equal(t, "origin/main", g.TrackingRemote(context.Background(), "main"))
	assert.Empty(t, g.TrackingRemote(context.Background(), "local-only"))
}

func TestCommitsBetween(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["log --format=%H\x1f%s\x1f%b\x1e main..feature"] =
		"bbb222\x1fadd pagination\x1fsupports cursors\x1e\n" +
			"ccc333\x1ffix off-by-one\x1f\x1e"
	runner.outputs["show --format= --patch bbb222"] = strings.Join([]string{
		"diff --git a/api/page.go b/api/page.go",
		"new file mode 100644",
		"index 0000000..1111111",
		"--- /dev/null",
		"+++ b/api/page.go",
		"@@ -0,0 +1,2 @@",
		"+package api",
		"+func Page() {}",
		"",
	}, "\n")
	runner.outputs["show --format= --patch ccc333"] = strings.Join([]string{
		"diff --git a/api/handler.go b/api/handler.go",
		"index 1111111..2222222 100644",
		"--- a/api/handler.go",
		"+++ b/api/handler.go",
		"@@ -1,2 +1,2 @@",
		"-limit := n",
		"+limit := n + 1",
		" return limit",
		"",
	}, "\n")

	commits, err := g.CommitsBetween(context.Background(), "main", "feature")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "bbb222", commits[0].ID)
	assert.Equal(t, "add pagination", commits[0].Title)
	assert.Equal(t, "supports cursors", commits[0].Body)
	require.Len(t, commits[0].Files, 1)
	assert.Equal(t, models.FileChange{Path: "api/page.go", Kind: models.ChangeAdded, Added: 2}, commits[0].Files[0])

	assert.Equal(t, "fix off-by-one", commits[1].Title)
	require.Len(t, commits[1].Files, 1)
	assert.Equal(t, models.FileChange{Path: "api/handler.go", Kind: models.ChangeModified, Added: 1, Removed: 1}, commits[1].Files[0])
}

func TestParseNameStatus(t *testing.T) {
	out := strings.Join([]string{
		"M\tapi/handler.go",
		"A\tapi/cursor.go",
		"D\tlegacy/old.go",
		"R087\told/name.go\tnew/name.go",
		"",
	}, "\n")

	changed := parseNameStatus(out)
	assert.Equal(t, map[string]models.ChangeKind{
		"api/handler.go": models.ChangeModified,
		"api/cursor.go":  models.ChangeAdded,
		"legacy/old.go":  models.ChangeDeleted,
		"new/name.go":    models.ChangeRenamed,
	}, changed)
}

func TestBeginMerge(t *testing.T) {
	t.Run("clean merge", func(t *testing.T) {
		g, runner := newFakeGit()
		runner.outputs["merge --no-commit --no-ff feature"] = "Automatic merge went well"

		conflicted, err := g.BeginMerge(context.Background(), "feature")
		require.NoError(t, err)
		assert.False(t, conflicted)
	})

	t.Run("conflicts are not an error", func(t *testing.T) {
		g, runner := newFakeGit()
		runner.errs["merge --no-commit --no-ff feature"] =
			&BackendError{Args: []string{"merge"}, Stderr: "CONFLICT (content)", ExitCode: 1}
		runner.outputs["rev-parse --verify --quiet MERGE_HEAD"] = "bbb222"

		conflicted, err := g.BeginMerge(context.Background(), "feature")
		require.NoError(t, err)
		assert.True(t, conflicted)
	})

	t.Run("failure without merge state propagates", func(t *testing.T) {
		g, runner := newFakeGit()
		runner.errs["merge --no-commit --no-ff feature"] =
			&BackendError{Args: []string{"merge"}, Stderr: "error: local changes would be overwritten", ExitCode: 1}
		runner.errs["rev-parse --verify --quiet MERGE_HEAD"] =
			&BackendError{Args: []string{"rev-parse"}, ExitCode: 1}

		_, err := g.BeginMerge(context.Background(), "feature")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "would be overwritten")
	})
}

func TestConflictedFiles(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["diff --name-only --diff-filter=U"] = "a.go\nsvc/b.go\n"

	files, err := g.ConflictedFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "svc/b.go"}, files)
}

func TestStageFiles(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["add -- a.go b.go"] = ""

	require.NoError(t, g.StageFiles(context.Background(), []string{"a.go", "b.go"}))
	assert.Contains(t, runner.calls, "add -- a.go b.go")

	require.NoError(t, g.StageFiles(context.Background(), nil))
	assert.Len(t, runner.calls, 1, "empty stage is a no-op")
}

func TestCommitReturnsHead(t *testing.T) {
	g, runner := newFakeGit()
	runner.outputs["commit -m done"] = ""
	runner.outputs["rev-parse HEAD"] = "ddd444"

	id, err := g.Commit(context.Background(), "done")
	require.NoError(t, err)
	assert.Equal(t, "ddd444", id)
}

func TestBackendErrorMessage(t *testing.T) {
	err := &BackendError{
		Args:     []string{"merge-base", "a", "b"},
		Stderr:   "fatal: no merge base\n",
		ExitCode: 1,
	}
	assert.Equal(t, "git merge-base a b failed: fatal: no merge base", err.Error())
}
