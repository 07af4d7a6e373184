package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcatool/mca/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, state models.ExecState, at time.Time) *models.Run {
	return &models.Run{
		ID:        id,
		Kind:      models.AttemptMerge,
		State:     state,
		Base:      models.BranchRef{Name: "main", CommitID: "aaa111"},
		Incoming:  models.BranchRef{Name: "feature", CommitID: "bbb222"},
		MergeBase: "mb0",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	run := sampleRun("r1", models.StatePaused, now)
	run.Plan = &models.ResolutionPlan{
		ID:    "plan-1",
		Label: "mixed",
		Props: []models.StrategyProposal{
			{PatternID: "p1", Strategy: models.StrategyKeepBase, Rationale: "finished side"},
		},
		Stats: models.PlanStats{TotalConflicts: 3, FilesAffected: 2, Patterns: 1},
	}
	run.Result = &models.ExecutionResult{
		Files:  []models.FileResult{{Path: "a.go", Outcome: models.OutcomeResolved}},
		Staged: []string{"a.go"},
		Test:   models.TestOutcome{Ran: true, Passed: false, Command: "go test ./...", Summary: "FAIL"},
	}
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, run.State, got.State)
	assert.Equal(t, "main", got.Base.Name)
	assert.Equal(t, "mb0", got.MergeBase)
	require.NotNil(t, got.Plan)
	assert.Equal(t, run.Plan.Stats, got.Plan.Stats)
	assert.Equal(t, models.StrategyKeepBase, got.Plan.Props[0].Strategy)
	require.NotNil(t, got.Result)
	assert.Equal(t, "go test ./...", got.Result.Test.Command)
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestSaveRun_UpsertsState(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	run := sampleRun("r1", models.StateStaged, now)
	require.NoError(t, s.SaveRun(run))

	run.State = models.StateCommitted
	run.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCommitted, got.State)

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "same ID never duplicates")
}

func TestSaveRun_NilPlanAndResult(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveRun(sampleRun("r1", models.StateAborted, time.Now().UTC())))

	got, err := s.GetRun("r1")
	require.NoError(t, err)
	assert.Nil(t, got.Plan)
	assert.Nil(t, got.Result)
}

func TestActiveRun(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	active, err := s.ActiveRun()
	require.NoError(t, err)
	assert.Nil(t, active, "empty store has no active run")

	require.NoError(t, s.SaveRun(sampleRun("done", models.StateCommitted, now)))
	require.NoError(t, s.SaveRun(sampleRun("old-pause", models.StatePaused, now.Add(1*time.Minute))))
	require.NoError(t, s.SaveRun(sampleRun("new-stage", models.StateStaged, now.Add(2*time.Minute))))

	active, err = s.ActiveRun()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "new-stage", active.ID, "newest open run wins")
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.SaveRun(sampleRun("r1", models.StateCommitted, now)))
	require.NoError(t, s.SaveRun(sampleRun("r2", models.StateAborted, now.Add(time.Minute))))
	require.NoError(t, s.SaveRun(sampleRun("r3", models.StatePaused, now.Add(2*time.Minute))))

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)

	all, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "non-positive limit falls back to the default")
}

func TestGetRun_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("nope")
	assert.Error(t, err)
}

func TestKeyValue(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetValue("schema_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.SetValue("last_branch", "feature"))
	require.NoError(t, s.SetValue("last_branch", "hotfix"))
	v, err = s.GetValue("last_branch")
	require.NoError(t, err)
	assert.Equal(t, "hotfix", v)

	v, err = s.GetValue("missing")
	require.NoError(t, err)
	assert.Empty(t, v)
}
