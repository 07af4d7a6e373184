// Package core implements the advisor's decision pipeline: divergence
// analysis, conflict extraction, pattern clustering, strategy
// recommendation, plan building, plan execution and the verification gate.
// It consumes version control exclusively through gitx.Backend.
package core

import (
	"context"
	"sort"

	"github.com/mcatool/mca/internal/gitx"
	"github.com/mcatool/mca/internal/models"
)

// AnalyzeDivergence snapshots both branches and computes commit- and
// file-level divergence relative to their merge-base. Unrelated histories
// are a fatal DivergenceError, never a guess.
func AnalyzeDivergence(ctx context.Context, backend gitx.Backend, baseName, incomingName string) (*models.Divergence, error) {
	baseID, err := backend.ResolveRef(ctx, baseName)
	if err != nil {
		return nil, &DivergenceError{Base: baseName, Incoming: incomingName, Reason: err.Error()}
	}
	incomingID, err := backend.ResolveRef(ctx, incomingName)
	if err != nil {
		return nil, &DivergenceError{Base: baseName, Incoming: incomingName, Reason: err.Error()}
	}

	div := &models.Divergence{
		Base:     models.BranchRef{Name: baseName, CommitID: baseID, Remote: backend.TrackingRemote(ctx, baseName)},
		Incoming: models.BranchRef{Name: incomingName, CommitID: incomingID, Remote: backend.TrackingRemote(ctx, incomingName)},
	}

	mergeBase, err := backend.MergeBase(ctx, baseName, incomingName)
	if err != nil || mergeBase == "" {
		reason := "no common ancestor (unrelated histories)"
		if err != nil {
			reason = err.Error()
		}
		return nil, &DivergenceError{Base: baseName, Incoming: incomingName, Reason: reason}
	}
	div.MergeBase = mergeBase

	if div.BaseOnly, err = backend.CommitsBetween(ctx, incomingName, baseName); err != nil {
		return nil, err
	}
	if div.IncomingOnly, err = backend.CommitsBetween(ctx, baseName, incomingName); err != nil {
		return nil, err
	}

	baseChanged, err := backend.ChangedSince(ctx, mergeBase, baseName)
	if err != nil {
		return nil, err
	}
	incomingChanged, err := backend.ChangedSince(ctx, mergeBase, incomingName)
	if err != nil {
		return nil, err
	}

	for path := range baseChanged {
		if _, both := incomingChanged[path]; both {
			div.Contested = append(div.Contested, path)
		}
	}
	sort.Strings(div.Contested)

	return div, nil
}
