package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mcatool/mca/internal/gitx"
	"github.com/mcatool/mca/internal/models"
)

// Executor drives the resolution state machine:
//
//	PLANNED -> APPLYING -> STAGED -> {COMMITTED | PAUSED_FOR_REVIEW | ABORTED}
//
// plus APPLYING -> PAUSED_FOR_REVIEW when the plan contains manual
// patterns whose blocks are deliberately left in place. Any state may
// abort; aborting invokes the backend's native abort exactly once.
type Executor struct {
	backend gitx.Backend
	root    string
	kind    models.AttemptKind
	log     zerolog.Logger

	state       models.ExecState
	abortCalled bool
}

// legal transitions, keyed by source state
var transitions = map[models.ExecState][]models.ExecState{
	models.StatePlanned:  {models.StateApplying, models.StateAborted},
	models.StateApplying: {models.StateStaged, models.StatePaused, models.StateAborted},
	models.StateStaged:   {models.StateCommitted, models.StatePaused, models.StateAborted},
	models.StatePaused:   {models.StateCommitted, models.StateAborted},
}

// NewExecutor creates an executor in PLANNED over a working tree rooted at
// root.
func NewExecutor(backend gitx.Backend, root string, kind models.AttemptKind, log zerolog.Logger) *Executor {
	return &Executor{backend: backend, root: root, kind: kind, log: log, state: models.StatePlanned}
}

// State returns the machine's current position.
func (e *Executor) State() models.ExecState { return e.state }

// Resume places a fresh executor at a persisted state. Only STAGED and
// PAUSED_FOR_REVIEW runs are resumable.
func (e *Executor) Resume(state models.ExecState) error {
	if state != models.StateStaged && state != models.StatePaused {
		return fmt.Errorf("cannot resume a run in state %s", state)
	}
	e.state = state
	return nil
}

func (e *Executor) transition(to models.ExecState) error {
	for _, allowed := range transitions[e.state] {
		if allowed == to {
			e.log.Info().Str("from", string(e.state)).Str("to", string(to)).Msg("executor transition")
			e.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", e.state, to)
}

// blockDecision is the per-block instruction derived from the approved plan.
type blockDecision struct {
	strategy     models.Strategy
	annotateTODO bool
}

// Apply rewrites every conflicted region according to the approved plan.
// Files are rewritten sequentially in the order patterns appear in the
// plan; blocks belonging to manual patterns stay untouched. Rewritten
// files are re-checked for leftover markers before staging.
func (e *Executor) Apply(ctx context.Context, plan *models.ResolutionPlan, patterns []*models.ConflictPattern) (*models.ExecutionResult, error) {
	if err := e.transition(models.StateApplying); err != nil {
		return nil, err
	}

	decisions, fileOrder := planDecisions(plan, patterns)

	result := &models.ExecutionResult{}
	manualRemaining := false

	for _, path := range fileOrder {
		outcome, err := e.applyFile(ctx, path, decisions[path])
		if err != nil {
			e.failApply(ctx)
			return nil, err
		}
		result.Files = append(result.Files, models.FileResult{Path: path, Outcome: outcome})
		if outcome == models.OutcomeResolved {
			if err := e.backend.StageFiles(ctx, []string{path}); err != nil {
				e.failApply(ctx)
				return nil, err
			}
			result.Staged = append(result.Staged, path)
		} else {
			manualRemaining = true
		}
	}

	target := models.StateStaged
	if manualRemaining {
		target = models.StatePaused
	}
	if err := e.transition(target); err != nil {
		return nil, err
	}
	return result, nil
}

// failApply aborts the machine after a rewrite failure, reverting the
// working tree through the backend's native abort.
func (e *Executor) failApply(ctx context.Context) {
	if err := e.Abort(ctx); err != nil {
		e.log.Error().Err(err).Msg("abort after failed apply")
	}
}

// applyFile rewrites one file's blocks. Returns still-conflicted when any
// block was deferred to manual resolution, and a ResidualConflictError
// when an automatic rewrite left markers behind.
func (e *Executor) applyFile(ctx context.Context, path string, decisions map[int]blockDecision) (models.FileOutcome, error) {
	full := filepath.Join(e.root, path)
	content, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	blocks, err := scanBlocks(path, lines)
	if err != nil {
		return "", err
	}

	manual := false
	// rewrite bottom-up so earlier block positions stay valid
	for i := len(blocks) - 1; i >= 0; i-- {
		decision, ok := decisions[i]
		if !ok || decision.strategy == models.StrategyManual {
			manual = true
			continue
		}
		replacement := resolveBlock(blocks[i], decision)
		lines = append(lines[:blocks[i].startIdx], append(replacement, lines[blocks[i].endIdx+1:]...)...)
	}

	rewritten := strings.Join(lines, "\n")
	if err := os.WriteFile(full, []byte(rewritten), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	if manual {
		return models.OutcomeStillConflicted, nil
	}
	if containsMarkers(rewritten) {
		return "", &ResidualConflictError{Files: []string{path}}
	}
	return models.OutcomeResolved, nil
}

// resolveBlock produces the replacement lines for one block.
func resolveBlock(b rawBlock, d blockDecision) []string {
	var kept, dropped []string
	switch d.strategy {
	case models.StrategyKeepBase:
		kept, dropped = b.baseLines, b.incomingLines
	case models.StrategyKeepIncoming:
		kept, dropped = b.incomingLines, b.baseLines
	case models.StrategyMergeBoth:
		// union: base first, then incoming lines not already present
		present := make(map[string]bool, len(b.baseLines))
		for _, line := range b.baseLines {
			present[line] = true
		}
		kept = append(kept, b.baseLines...)
		for _, line := range b.incomingLines {
			if !present[line] {
				kept = append(kept, line)
			}
		}
	}
	out := append([]string(nil), kept...)
	if d.annotateTODO {
		for _, line := range dropped {
			upper := strings.ToUpper(line)
			if strings.Contains(upper, "TODO") || strings.Contains(upper, "FIXME") {
				out = append(out, line)
			}
		}
	}
	return out
}

// planDecisions maps every record to its block decision, keyed by file and
// ordinal, and returns files in the order their patterns appear in the
// plan so the "what changed and why" summary stays traceable.
func planDecisions(plan *models.ResolutionPlan, patterns []*models.ConflictPattern) (map[string]map[int]blockDecision, []string) {
	byID := make(map[string]*models.ConflictPattern, len(patterns))
	for _, p := range patterns {
		byID[p.ID] = p
	}

	decisions := make(map[string]map[int]blockDecision)
	var fileOrder []string
	for _, prop := range plan.Props {
		pattern, ok := byID[prop.PatternID]
		if !ok {
			continue
		}
		for _, record := range pattern.Records {
			if decisions[record.Path] == nil {
				decisions[record.Path] = make(map[int]blockDecision)
				fileOrder = append(fileOrder, record.Path)
			}
			decisions[record.Path][record.Ordinal] = blockDecision{
				strategy:     prop.Strategy,
				annotateTODO: prop.AnnotateTODO,
			}
		}
	}
	return decisions, fileOrder
}

func containsMarkers(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, markerStart) || strings.HasPrefix(line, markerEnd) {
			return true
		}
	}
	return false
}

// Commit finalizes a staged run with a merge commit. The caller is
// responsible for having passed the verification gate or recorded an
// explicit override first.
func (e *Executor) Commit(ctx context.Context, message string) (string, error) {
	if err := e.transition(models.StateCommitted); err != nil {
		return "", err
	}
	return e.backend.Commit(ctx, message)
}

// Pause stops a staged run for manual finalization later.
func (e *Executor) Pause() error {
	return e.transition(models.StatePaused)
}

// Abort moves the machine to ABORTED and performs the backend's native
// abort exactly once, leaving the working tree in its pre-attempt state.
func (e *Executor) Abort(ctx context.Context) error {
	if e.state == models.StateAborted {
		return nil
	}
	e.log.Info().Str("from", string(e.state)).Msg("executor abort")
	e.state = models.StateAborted
	if e.abortCalled {
		return nil
	}
	e.abortCalled = true
	if e.kind == models.AttemptRebase {
		return e.backend.AbortRebase(ctx)
	}
	return e.backend.AbortMerge(ctx)
}
