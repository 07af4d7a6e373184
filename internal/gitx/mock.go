package gitx

import (
	"context"
	"fmt"

	"github.com/mcatool/mca/internal/models"
)

// MockBackend is an in-memory Backend for testing. Fields hold canned
// answers; call counters record lifecycle operations.
type MockBackend struct {
	// Root is the working-tree directory (usually t.TempDir())
	Root string
	// Branches maps branch name to commit ID
	Branches map[string]string
	// Current is the checked-out branch name
	Current string
	// Upstreams maps branch name to its tracking remote
	Upstreams map[string]string
	// Base maps "a..b" to the canned merge-base commit ID
	Base map[string]string
	// Commits maps "exclude..include" to canned range logs
	Commits map[string][]models.CommitSummary
	// Changed maps ref to the files it changed since the merge-base
	Changed map[string]map[string]models.ChangeKind
	// Conflicted is the canned unmerged-file list
	Conflicted []string
	// BeginMergeConflicts controls whether BeginMerge reports conflicts
	BeginMergeConflicts bool
	// MergeActive / RebaseActive report in-progress operations
	MergeActive  bool
	RebaseActive bool
	// Err can be set to make query methods return an error
	Err error

	// Recorded calls
	AbortMergeCalls  int
	AbortRebaseCalls int
	StagedPaths      []string
	CommitMessages   []string
}

// NewMockBackend creates a MockBackend with empty canned data.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Branches:  make(map[string]string),
		Upstreams: make(map[string]string),
		Base:      make(map[string]string),
		Commits:   make(map[string][]models.CommitSummary),
		Changed:   make(map[string]map[string]models.ChangeKind),
	}
}

func (m *MockBackend) RepoRoot(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Root, nil
}

func (m *MockBackend) CurrentBranch(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Current, nil
}

func (m *MockBackend) BranchExists(ctx context.Context, name string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.Branches[name]
	return ok, nil
}

func (m *MockBackend) ResolveRef(ctx context.Context, ref string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if sha, ok := m.Branches[ref]; ok {
		return sha, nil
	}
	return "", fmt.Errorf("unknown ref: %s", ref)
}

func (m *MockBackend) TrackingRemote(ctx context.Context, branch string) string {
	return m.Upstreams[branch]
}

func (m *MockBackend) MergeBase(ctx context.Context, a, b string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if base, ok := m.Base[a+".."+b]; ok {
		return base, nil
	}
	if base, ok := m.Base[b+".."+a]; ok {
		return base, nil
	}
	return "", &BackendError{Args: []string{"merge-base", a, b}, Stderr: "fatal: no merge base", ExitCode: 1}
}

func (m *MockBackend) CommitsBetween(ctx context.Context, exclude, include string) ([]models.CommitSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Commits[exclude+".."+include], nil
}

func (m *MockBackend) ChangedSince(ctx context.Context, base, ref string) (map[string]models.ChangeKind, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Changed[ref], nil
}

func (m *MockBackend) BeginMerge(ctx context.Context, branch string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	if m.BeginMergeConflicts {
		m.MergeActive = true
	}
	return m.BeginMergeConflicts, nil
}

func (m *MockBackend) MergeInProgress(ctx context.Context) bool  { return m.MergeActive }
func (m *MockBackend) RebaseInProgress(ctx context.Context) bool { return m.RebaseActive }

func (m *MockBackend) AbortMerge(ctx context.Context) error {
	m.AbortMergeCalls++
	m.MergeActive = false
	return nil
}

func (m *MockBackend) AbortRebase(ctx context.Context) error {
	m.AbortRebaseCalls++
	m.RebaseActive = false
	return nil
}

func (m *MockBackend) ConflictedFiles(ctx context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Conflicted, nil
}

func (m *MockBackend) StageFiles(ctx context.Context, paths []string) error {
	m.StagedPaths = append(m.StagedPaths, paths...)
	return nil
}

func (m *MockBackend) Commit(ctx context.Context, message string) (string, error) {
	m.CommitMessages = append(m.CommitMessages, message)
	m.MergeActive = false
	return "mockcommit", nil
}

func (m *MockBackend) HasUncommittedChanges(ctx context.Context) bool { return false }

// Verify that MockBackend implements Backend at compile time
var _ Backend = (*MockBackend)(nil)
