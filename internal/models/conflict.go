package models

import (
	"strconv"
	"strings"
)

// ConflictKind classifies what a conflict marker block is about
type ConflictKind string

const (
	KindSignatureChange ConflictKind = "signature-change"       // same callable, different parameters
	KindLogicDifference ConflictKind = "logic-difference"       // safe default for anything unclassified
	KindRename          ConflictKind = "rename"                 // one identifier consistently swapped
	KindDeleteModify    ConflictKind = "deletion-vs-modification"
	KindDocumentation   ConflictKind = "documentation"          // only comment/doc lines differ
	KindImportChange    ConflictKind = "import-change"
	KindFormatting      ConflictKind = "formatting"             // equal after whitespace normalization
)

// ConflictRecord is one parsed conflict marker block. Immutable once
// created; a file may contain many.
type ConflictRecord struct {
	Path      string       `json:"path"`
	Ordinal   int          `json:"ordinal"` // zero-based index of the block within its file
	StartLine int          `json:"start_line"`
	EndLine   int          `json:"end_line"`
	BaseText  string       `json:"base_text"`     // ours side, verbatim
	IncomText string       `json:"incoming_text"` // theirs side, verbatim
	Symbol    string       `json:"symbol,omitempty"` // enclosing symbol name, if resolvable
	Kind      ConflictKind `json:"kind"`
}

// Key identifies a record within one analysis run.
func (r *ConflictRecord) Key() string {
	return r.Path + "#" + strconv.Itoa(r.Ordinal)
}

// BaseHasTODO reports whether the base side carries unfinished-work markers.
func (r *ConflictRecord) BaseHasTODO() bool { return hasTODO(r.BaseText) }

// IncomingHasTODO reports whether the incoming side carries unfinished-work markers.
func (r *ConflictRecord) IncomingHasTODO() bool { return hasTODO(r.IncomText) }

func hasTODO(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "TODO") || strings.Contains(upper, "FIXME")
}

