package gitx

import (
	"context"

	"github.com/mcatool/mca/internal/models"
)

// Backend is the version-control surface the advisor consumes. Implemented
// by Git for real repositories and by MockBackend in tests.
type Backend interface {
	// Repository and branch queries
	RepoRoot(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	ResolveRef(ctx context.Context, ref string) (string, error)
	TrackingRemote(ctx context.Context, branch string) string

	// History queries
	MergeBase(ctx context.Context, a, b string) (string, error)
	CommitsBetween(ctx context.Context, exclude, include string) ([]models.CommitSummary, error)
	ChangedSince(ctx context.Context, base, ref string) (map[string]models.ChangeKind, error)

	// Merge/rebase lifecycle
	BeginMerge(ctx context.Context, branch string) (conflicted bool, err error)
	MergeInProgress(ctx context.Context) bool
	RebaseInProgress(ctx context.Context) bool
	AbortMerge(ctx context.Context) error
	AbortRebase(ctx context.Context) error
	ConflictedFiles(ctx context.Context) ([]string, error)

	// Finalization
	StageFiles(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) (string, error)
	HasUncommittedChanges(ctx context.Context) bool
}

// Verify that *Git implements Backend at compile time
var _ Backend = (*Git)(nil)
