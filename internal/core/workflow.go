package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcatool/mca/internal/gitx"
	"github.com/mcatool/mca/internal/models"
	"github.com/mcatool/mca/internal/prompt"
)

// RunSaver persists run snapshots so a paused run can be finished by a
// later invocation.
type RunSaver interface {
	SaveRun(run *models.Run) error
}

// PlanRenderer displays a plan for review. The CLI injects a colored
// renderer; tests leave it nil.
type PlanRenderer func(plan *models.ResolutionPlan, patterns []*models.ConflictPattern)

// Workflow owns one advisory session end to end: one working tree, one
// backend session, explicit state. A second concurrent invocation against
// the same tree is rejected at startup.
type Workflow struct {
	Backend     gitx.Backend
	Decider     prompt.Decider
	Recommender *Recommender
	Saver       RunSaver
	Render      PlanRenderer
	Out         io.Writer
	Log         zerolog.Logger

	TestCommand string
	AutoCommit  bool
}

// Plan approval answers.
const (
	answerApprove = "approve"
	answerAdjust  = "adjust"
	answerAbort   = "abort"
)

// Run executes the full pipeline against the named incoming branch:
// divergence analysis, merge attempt, extraction, clustering,
// recommendation, plan approval, execution and verification.
func (w *Workflow) Run(ctx context.Context, incoming string) (*models.Run, error) {
	root, err := w.Backend.RepoRoot(ctx)
	if err != nil {
		return nil, err
	}
	if w.Backend.MergeInProgress(ctx) || w.Backend.RebaseInProgress(ctx) {
		return nil, fmt.Errorf("a merge or rebase is already in progress; finish or abort it first (or run 'mca continue')")
	}
	if w.Backend.HasUncommittedChanges(ctx) {
		return nil, fmt.Errorf("working tree has uncommitted changes; commit or stash them first")
	}

	base, err := w.Backend.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if exists, err := w.Backend.BranchExists(ctx, incoming); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("branch %q does not exist", incoming)
	}

	div, err := AnalyzeDivergence(ctx, w.Backend, base, incoming)
	if err != nil {
		return nil, err
	}
	w.Log.Info().
		Str("base", base).Str("incoming", incoming).
		Int("base_commits", len(div.BaseOnly)).
		Int("incoming_commits", len(div.IncomingOnly)).
		Int("contested", len(div.Contested)).
		Msg("divergence analyzed")

	run := &models.Run{
		ID:        uuid.NewString(),
		Kind:      models.AttemptMerge,
		State:     models.StatePlanned,
		Base:      div.Base,
		Incoming:  div.Incoming,
		MergeBase: div.MergeBase,
		CreatedAt: time.Now().UTC(),
	}

	conflicted, err := w.Backend.BeginMerge(ctx, incoming)
	if err != nil {
		return nil, err
	}
	if !conflicted {
		return w.finishCleanMerge(ctx, run)
	}

	executor := NewExecutor(w.Backend, root, run.Kind, w.Log)

	files, err := w.Backend.ConflictedFiles(ctx)
	if err != nil {
		return run, w.abortWith(ctx, executor, run, err)
	}
	records, malformed, err := ExtractWorkingTree(root, files)
	if err != nil {
		return run, w.abortWith(ctx, executor, run, err)
	}
	for _, mfe := range malformed {
		fmt.Fprintf(w.Out, "warning: %v; that file is left for manual resolution\n", mfe)
	}

	patterns := ClusterRecords(records)
	proposals := make([]models.StrategyProposal, 0, len(patterns))
	for _, p := range patterns {
		proposals = append(proposals, w.Recommender.Recommend(p, div))
	}
	plan := BuildPlan(div, patterns, proposals)

	plan, approved, err := w.approve(ctx, plan, patterns)
	if err != nil {
		return run, w.abortWith(ctx, executor, run, err)
	}
	run.Plan = plan
	if !approved {
		return w.finishAborted(ctx, executor, run)
	}

	result, err := executor.Apply(ctx, plan, patterns)
	if err != nil {
		run.State = executor.State()
		w.save(run)
		return run, err
	}
	covered := make(map[string]bool, len(result.Files))
	for _, f := range result.Files {
		covered[f.Path] = true
	}
	for _, mfe := range malformed {
		covered[mfe.Path] = true
		result.Files = append(result.Files, models.FileResult{Path: mfe.Path, Outcome: models.OutcomeStillConflicted})
	}
	// unmerged files without marker blocks (e.g. modify/delete) carry no
	// records, so no strategy touched them
	deferred := len(malformed)
	for _, path := range files {
		if !covered[path] {
			result.Files = append(result.Files, models.FileResult{Path: path, Outcome: models.OutcomeSkipped})
			deferred++
		}
	}
	run.Result = result

	if executor.State() == models.StateStaged && deferred > 0 {
		if err := executor.Pause(); err != nil {
			return run, err
		}
	}

	if executor.State() == models.StateStaged {
		if err := w.verifyAndFinish(ctx, executor, run); err != nil {
			return run, err
		}
	} else {
		run.State = executor.State()
		w.save(run)
	}
	return run, nil
}

// finishCleanMerge handles the no-conflict case: the attempt either
// commits immediately or is left staged for review.
func (w *Workflow) finishCleanMerge(ctx context.Context, run *models.Run) (*models.Run, error) {
	run.Result = &models.ExecutionResult{}
	if w.AutoCommit {
		if _, err := w.Backend.Commit(ctx, w.mergeMessage(run)); err != nil {
			return run, err
		}
		run.State = models.StateCommitted
	} else {
		run.State = models.StateStaged
	}
	w.save(run)
	return run, nil
}

// approve runs the plan review loop: approve, adjust one pattern at a
// time, or abort. Each adjustment regenerates the plan from a copy.
func (w *Workflow) approve(ctx context.Context, plan *models.ResolutionPlan, patterns []*models.ConflictPattern) (*models.ResolutionPlan, bool, error) {
	for {
		if w.Render != nil {
			w.Render(plan, patterns)
		}
		answer, err := w.Decider.Decide(ctx, prompt.Question{
			Title: "Apply this resolution plan?",
			Detail: fmt.Sprintf("%d conflicts, %d files, %d patterns (%s)",
				plan.Stats.TotalConflicts, plan.Stats.FilesAffected, plan.Stats.Patterns, plan.Label),
			Options: []prompt.Option{
				{ID: answerApprove, Label: "Approve and apply"},
				{ID: answerAdjust, Label: "Adjust a pattern's strategy"},
				{ID: answerAbort, Label: "Abort and restore"},
			},
		})
		if err != nil {
			return plan, false, err
		}
		switch answer {
		case answerApprove:
			return plan, true, nil
		case answerAbort:
			return plan, false, nil
		}

		plan, err = w.adjustOne(ctx, plan, patterns)
		if err != nil {
			return plan, false, err
		}
	}
}

// adjustOne asks which pattern to change and which strategy to use, then
// regenerates the plan.
func (w *Workflow) adjustOne(ctx context.Context, plan *models.ResolutionPlan, patterns []*models.ConflictPattern) (*models.ResolutionPlan, error) {
	byID := make(map[string]*models.ConflictPattern, len(patterns))
	patternOptions := make([]prompt.Option, 0, len(patterns))
	for _, p := range patterns {
		byID[p.ID] = p
		prop := plan.Proposal(p.ID)
		patternOptions = append(patternOptions, prompt.Option{
			ID:    p.ID,
			Label: fmt.Sprintf("%s: %s [%s]", p.ID, p.Description, prop.Strategy),
		})
	}

	patternID, err := w.Decider.Decide(ctx, prompt.Question{
		Title:   "Which pattern?",
		Options: patternOptions,
	})
	if err != nil {
		return plan, err
	}

	prop := plan.Proposal(patternID)
	strategyOptions := []prompt.Option{
		{ID: string(prop.Strategy), Label: fmt.Sprintf("%s (current)", prop.Strategy)},
	}
	for _, alt := range prop.Alternatives {
		strategyOptions = append(strategyOptions, prompt.Option{
			ID:    string(alt.Strategy),
			Label: fmt.Sprintf("%s (%s)", alt.Strategy, alt.Impact),
		})
	}

	strategy, err := w.Decider.Decide(ctx, prompt.Question{
		Title:   fmt.Sprintf("Strategy for %s?", patternID),
		Detail:  byID[patternID].Description,
		Options: strategyOptions,
	})
	if err != nil {
		return plan, err
	}
	return AdjustPlan(plan, patternID, models.Strategy(strategy))
}

// verifyAndFinish gates a staged run on the test command, then commits,
// pauses or aborts per the chosen disposition.
func (w *Workflow) verifyAndFinish(ctx context.Context, executor *Executor, run *models.Run) error {
	root, err := w.Backend.RepoRoot(ctx)
	if err != nil {
		return err
	}
	gate := &Gate{Root: root, Command: w.TestCommand, Decider: w.Decider, Out: w.Out, Log: w.Log}

	outcome, disposition, err := gate.Check(ctx)
	run.Result.Test = outcome
	if err != nil {
		if errors.Is(err, prompt.ErrCanceled) {
			disposition = DispositionAbort
		} else {
			return err
		}
	}

	switch disposition {
	case DispositionAbort:
		if err := executor.Abort(ctx); err != nil {
			return err
		}
	case DispositionPause:
		if err := executor.Pause(); err != nil {
			return err
		}
	case DispositionContinue:
		// continuing past anything but a pass is an explicit override,
		// including the no-test-command case
		if !outcome.Passed {
			run.Result.Overridden = true
		}
		if w.AutoCommit {
			if _, err := executor.Commit(ctx, w.mergeMessage(run)); err != nil {
				return err
			}
		} else {
			if err := executor.Pause(); err != nil {
				return err
			}
		}
	}

	run.State = executor.State()
	w.save(run)
	return nil
}

// Resume finishes a paused run: every previously conflicted file must be
// clean by now; the gate runs again before committing.
func (w *Workflow) Resume(ctx context.Context, run *models.Run) error {
	if run.State.Terminal() {
		return fmt.Errorf("run %s already finished in state %s", run.ID, run.State)
	}
	root, err := w.Backend.RepoRoot(ctx)
	if err != nil {
		return err
	}

	remaining, err := w.Backend.ConflictedFiles(ctx)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return fmt.Errorf("still conflicted: %v; resolve these and rerun 'mca continue'", remaining)
	}

	executor := NewExecutor(w.Backend, root, run.Kind, w.Log)
	if err := executor.Resume(models.StateStaged); err != nil {
		return err
	}
	if run.Result == nil {
		run.Result = &models.ExecutionResult{}
	}
	return w.verifyAndFinish(ctx, executor, run)
}

// Abort cancels a run explicitly, restoring the pre-attempt tree.
func (w *Workflow) Abort(ctx context.Context, run *models.Run) error {
	executor := NewExecutor(w.Backend, "", run.Kind, w.Log)
	if err := executor.Abort(ctx); err != nil {
		return err
	}
	run.State = models.StateAborted
	w.save(run)
	return nil
}

func (w *Workflow) finishAborted(ctx context.Context, executor *Executor, run *models.Run) (*models.Run, error) {
	if err := executor.Abort(ctx); err != nil {
		return run, err
	}
	run.State = models.StateAborted
	w.save(run)
	return run, nil
}

// abortWith cancels the attempt and returns the original failure. A
// canceled prompt is an abort request, not an error.
func (w *Workflow) abortWith(ctx context.Context, executor *Executor, run *models.Run, cause error) error {
	if abortErr := executor.Abort(ctx); abortErr != nil {
		w.Log.Error().Err(abortErr).Msg("backend abort failed")
	}
	run.State = models.StateAborted
	w.save(run)
	if errors.Is(cause, prompt.ErrCanceled) {
		return nil
	}
	return cause
}

func (w *Workflow) save(run *models.Run) {
	run.UpdatedAt = time.Now().UTC()
	if w.Saver == nil {
		return
	}
	if err := w.Saver.SaveRun(run); err != nil {
		w.Log.Error().Err(err).Str("run", run.ID).Msg("persisting run state")
	}
}

func (w *Workflow) mergeMessage(run *models.Run) string {
	return fmt.Sprintf("Merge branch '%s' into %s", run.Incoming.Name, run.Base.Name)
}
