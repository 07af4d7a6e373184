package core

import (
	"fmt"
	"strings"
)

// DivergenceError reports that branch divergence could not be computed.
// Fatal: the workflow reports it and stops without guessing.
type DivergenceError struct {
	Base     string
	Incoming string
	Reason   string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("cannot analyze divergence between %s and %s: %s", e.Base, e.Incoming, e.Reason)
}

// MalformedConflictError reports a conflict marker block that could not be
// parsed. Fatal for that file only; the workflow offers manual resolution
// for it.
type MalformedConflictError struct {
	Path string
	Line int
}

func (e *MalformedConflictError) Error() string {
	return fmt.Sprintf("%s:%d: conflict start marker has no matching end marker", e.Path, e.Line)
}

// ResidualConflictError reports markers left behind by an automatic
// rewrite. It aborts the execution state machine.
type ResidualConflictError struct {
	Files []string
}

func (e *ResidualConflictError) Error() string {
	return fmt.Sprintf("conflict markers remain after rewrite in: %s", strings.Join(e.Files, ", "))
}
