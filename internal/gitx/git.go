package gitx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/rs/zerolog"

	"github.com/mcatool/mca/internal/models"
)

// Field and record separators for machine-readable log output.
const (
	logFieldSep  = "\x1f"
	logRecordSep = "\x1e"
)

// Git talks to a real repository through a Runner.
type Git struct {
	runner Runner
	dir    string
}

// New creates a backend rooted at dir.
func New(dir string, log zerolog.Logger) *Git {
	return &Git{runner: &ExecRunner{Dir: dir, Log: log}, dir: dir}
}

// NewWithRunner creates a backend with a custom runner.
func NewWithRunner(runner Runner, dir string) *Git {
	return &Git{runner: runner, dir: dir}
}

func (g *Git) RepoRoot(ctx context.Context) (string, error) {
	return g.runner.Run(ctx, "rev-parse", "--show-toplevel")
}

func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	return g.runner.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

func (g *Git) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := g.runner.Run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	if err == nil {
		return true, nil
	}
	var be *BackendError
	if errors.As(err, &be) && be.ExitCode > 0 {
		return false, nil
	}
	return false, err
}

func (g *Git) ResolveRef(ctx context.Context, ref string) (string, error) {
	return g.runner.Run(ctx, "rev-parse", ref)
}

// TrackingRemote returns the upstream ref of a branch, or "" when none is set.
func (g *Git) TrackingRemote(ctx context.Context, branch string) string {
	out, err := g.runner.Run(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", branch+"@{upstream}")
	if err != nil {
		return ""
	}
	return out
}

func (g *Git) MergeBase(ctx context.Context, a, b string) (string, error) {
	return g.runner.Run(ctx, "merge-base", a, b)
}

// CommitsBetween returns the commits reachable from include but not from
// exclude (the exclude..include range), newest first, with per-file change
// statistics parsed from each commit's patch.
func (g *Git) CommitsBetween(ctx context.Context, exclude, include string) ([]models.CommitSummary, error) {
	out, err := g.runner.Run(ctx, "log",
		"--format=%H"+logFieldSep+"%s"+logFieldSep+"%b"+logRecordSep,
		exclude+".."+include)
	if err != nil {
		return nil, err
	}

	var commits []models.CommitSummary
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, logFieldSep, 3)
		if len(fields) < 2 {
			continue
		}
		commit := models.CommitSummary{ID: fields[0], Title: fields[1]}
		if len(fields) == 3 {
			commit.Body = strings.TrimSpace(fields[2])
		}

		files, err := g.commitFiles(ctx, commit.ID)
		if err != nil {
			return nil, err
		}
		commit.Files = files
		commits = append(commits, commit)
	}
	return commits, nil
}

// commitFiles parses one commit's patch into changed-file entries.
func (g *Git) commitFiles(ctx context.Context, sha string) ([]models.FileChange, error) {
	raw, err := g.runner.Run(ctx, "show", "--format=", "--patch", sha)
	if err != nil {
		return nil, err
	}
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing patch for %s: %w", sha, err)
	}

	var files []models.FileChange
	for _, f := range parsed {
		change := models.FileChange{Kind: models.ChangeModified}
		switch {
		case f.IsNew:
			change.Kind = models.ChangeAdded
		case f.IsDelete:
			change.Kind = models.ChangeDeleted
		case f.IsRename:
			change.Kind = models.ChangeRenamed
		}
		if f.NewName != "" {
			change.Path = f.NewName
		} else {
			change.Path = f.OldName
		}
		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					change.Added++
				case gitdiff.OpDelete:
					change.Removed++
				}
			}
		}
		files = append(files, change)
	}
	return files, nil
}

// ChangedSince returns the files a ref changed relative to a base commit,
// keyed by path.
func (g *Git) ChangedSince(ctx context.Context, base, ref string) (map[string]models.ChangeKind, error) {
	out, err := g.runner.Run(ctx, "diff", "--name-status", base, ref)
	if err != nil {
		return nil, err
	}
	return parseNameStatus(out), nil
}

// parseNameStatus parses `diff --name-status` output. Renames report the
// new path.
func parseNameStatus(out string) map[string]models.ChangeKind {
	changed := make(map[string]models.ChangeKind)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status, path := fields[0], fields[1]
		switch {
		case strings.HasPrefix(status, "A"):
			changed[path] = models.ChangeAdded
		case strings.HasPrefix(status, "D"):
			changed[path] = models.ChangeDeleted
		case strings.HasPrefix(status, "R"):
			if len(fields) >= 3 {
				path = fields[2]
			}
			changed[path] = models.ChangeRenamed
		default:
			changed[path] = models.ChangeModified
		}
	}
	return changed
}

// BeginMerge starts a merge without committing. A conflicted merge is not
// an error: the working tree now holds the marker blocks the extractor
// wants.
func (g *Git) BeginMerge(ctx context.Context, branch string) (bool, error) {
	_, err := g.runner.Run(ctx, "merge", "--no-commit", "--no-ff", branch)
	if err == nil {
		return false, nil
	}
	var be *BackendError
	if errors.As(err, &be) && be.ExitCode > 0 && g.MergeInProgress(ctx) {
		return true, nil
	}
	return false, err
}

func (g *Git) MergeInProgress(ctx context.Context) bool {
	_, err := g.runner.Run(ctx, "rev-parse", "--verify", "--quiet", "MERGE_HEAD")
	return err == nil
}

func (g *Git) RebaseInProgress(ctx context.Context) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		path, err := g.runner.Run(ctx, "rev-parse", "--git-path", name)
		if err != nil {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(g.dir, path)
		}
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

func (g *Git) AbortMerge(ctx context.Context) error {
	_, err := g.runner.Run(ctx, "merge", "--abort")
	return err
}

func (g *Git) AbortRebase(ctx context.Context) error {
	_, err := g.runner.Run(ctx, "rebase", "--abort")
	return err
}

// ConflictedFiles lists the paths still carrying unmerged entries.
func (g *Git) ConflictedFiles(ctx context.Context) ([]string, error) {
	out, err := g.runner.Run(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (g *Git) StageFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := g.runner.Run(ctx, args...)
	return err
}

func (g *Git) Commit(ctx context.Context, message string) (string, error) {
	if _, err := g.runner.Run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return g.ResolveRef(ctx, "HEAD")
}

func (g *Git) HasUncommittedChanges(ctx context.Context) bool {
	out, err := g.runner.Run(ctx, "status", "--porcelain")
	return err == nil && out != ""
}
