package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mcatool/mca/internal/models"
)

// Conflict marker prefixes as git writes them.
const (
	markerStart     = "<<<<<<<"
	markerBase      = "|||||||" // diff3 style common-ancestor section
	markerSeparator = "======="
	markerEnd       = ">>>>>>>"
)

// ExtractWorkingTree parses the given conflicted files under root into
// conflict records. Files whose markers cannot be parsed are reported
// separately so the workflow can route them to manual resolution without
// losing the rest.
func ExtractWorkingTree(root string, paths []string) ([]*models.ConflictRecord, []*MalformedConflictError, error) {
	var records []*models.ConflictRecord
	var malformed []*MalformedConflictError
	for _, path := range paths {
		content, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			return nil, nil, fmt.Errorf("reading conflicted file: %w", err)
		}
		fileRecords, err := ExtractFile(path, string(content))
		if err != nil {
			var mfe *MalformedConflictError
			if errors.As(err, &mfe) {
				malformed = append(malformed, mfe)
				continue
			}
			return nil, nil, err
		}
		records = append(records, fileRecords...)
	}
	return records, malformed, nil
}

// rawBlock is one scanned marker triple, positions as 0-based line
// indexes of the start and end markers.
type rawBlock struct {
	startIdx      int
	endIdx        int
	baseLines     []string
	incomingLines []string
}

// scanBlocks finds every balanced start/separator/end triple. A start
// marker without a matching separator and end marker is a
// MalformedConflictError.
func scanBlocks(path string, lines []string) ([]rawBlock, error) {
	var blocks []rawBlock
	var baseLines, incomingLines []string
	startIdx := -1
	seenSeparator := false
	inAncestor := false

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, markerStart) && startIdx < 0:
			startIdx = i
			seenSeparator = false
			inAncestor = false
			baseLines = nil
			incomingLines = nil

		case startIdx < 0:
			// plain content

		case strings.HasPrefix(line, markerBase) && !seenSeparator:
			inAncestor = true

		case line == markerSeparator && !seenSeparator:
			seenSeparator = true
			inAncestor = false

		case strings.HasPrefix(line, markerEnd):
			if !seenSeparator {
				return nil, &MalformedConflictError{Path: path, Line: startIdx + 1}
			}
			blocks = append(blocks, rawBlock{
				startIdx:      startIdx,
				endIdx:        i,
				baseLines:     baseLines,
				incomingLines: incomingLines,
			})
			startIdx = -1

		case seenSeparator:
			incomingLines = append(incomingLines, line)

		case !inAncestor:
			baseLines = append(baseLines, line)
		}
	}

	if startIdx >= 0 {
		return nil, &MalformedConflictError{Path: path, Line: startIdx + 1}
	}
	return blocks, nil
}

// ExtractFile scans one file's content for marker triples. Each balanced
// triple yields exactly one record with both sides verbatim.
func ExtractFile(path, content string) ([]*models.ConflictRecord, error) {
	lines := strings.Split(content, "\n")
	blocks, err := scanBlocks(path, lines)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ConflictRecord, 0, len(blocks))
	for ordinal, b := range blocks {
		record := &models.ConflictRecord{
			Path:      path,
			Ordinal:   ordinal,
			StartLine: b.startIdx + 1,
			EndLine:   b.endIdx + 1,
			BaseText:  strings.Join(b.baseLines, "\n"),
			IncomText: strings.Join(b.incomingLines, "\n"),
			Symbol:    enclosingSymbol(lines, b.startIdx),
		}
		record.Kind = classify(record)
		records = append(records, record)
	}
	return records, nil
}

// symbolRE matches common callable/type declaration headers across the
// languages the advisor is likely pointed at.
var symbolRE = regexp.MustCompile(`^\s*(?:export\s+)?(?:pub\s+)?(?:func|def|fn|function|class|type|interface)\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`)

// enclosingSymbol walks upward from the block start looking for the nearest
// declaration header.
func enclosingSymbol(lines []string, startIdx int) string {
	for i := startIdx - 1; i >= 0; i-- {
		if m := symbolRE.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
	}
	return ""
}

var (
	commentRE    = regexp.MustCompile(`^\s*(//|#|\*|/\*|\*/|--|;;|"""|''')`)
	importLineRE = regexp.MustCompile(`^\s*(import\b|from\s+\S+\s+import\b|#include\b|use\s+\S+|require\b|require\(|package\s+\S+$)`)
	funcHeaderRE = regexp.MustCompile(`(?:func|def|fn|function)\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	tokenRE      = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|\S`)
)

// classify applies lightweight structural heuristics, first match wins.
// Anything unrecognized is a logic difference, the safe default.
func classify(r *models.ConflictRecord) models.ConflictKind {
	base, incoming := r.BaseText, r.IncomText

	switch {
	case strings.TrimSpace(base) == "" && strings.TrimSpace(incoming) != "",
		strings.TrimSpace(base) != "" && strings.TrimSpace(incoming) == "":
		return models.KindDeleteModify

	case stripAllWhitespace(base) == stripAllWhitespace(incoming):
		return models.KindFormatting

	case isDocumentationDiff(base, incoming):
		return models.KindDocumentation

	case isImportBlock(base) && isImportBlock(incoming):
		return models.KindImportChange

	case isSignatureChange(base, incoming):
		return models.KindSignatureChange

	case isRename(base, incoming):
		return models.KindRename
	}
	return models.KindLogicDifference
}

// stripAllWhitespace removes every whitespace character, so pure
// reformatting compares equal.
func stripAllWhitespace(text string) string {
	return strings.Join(strings.Fields(text), "")
}

// squeezeWhitespace drops blank lines and collapses runs of whitespace
// without joining tokens together.
func squeezeWhitespace(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}

// isDocumentationDiff reports whether the two sides agree once comment
// lines are removed, meaning only documentation differs.
func isDocumentationDiff(base, incoming string) bool {
	strippedBase := stripComments(base)
	strippedIncoming := stripComments(incoming)
	if squeezeWhitespace(strippedBase) != squeezeWhitespace(strippedIncoming) {
		return false
	}
	// at least one side must actually carry comments
	return strippedBase != base || strippedIncoming != incoming
}

func stripComments(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if !commentRE.MatchString(line) {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// isImportBlock reports whether every meaningful line looks like an import
// or include statement.
func isImportBlock(text string) bool {
	meaningful := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == ")" || trimmed == "(" || commentRE.MatchString(line) {
			continue
		}
		// quoted module paths inside a grouped import
		if strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
			meaningful++
			continue
		}
		if !importLineRE.MatchString(line) {
			return false
		}
		meaningful++
	}
	return meaningful > 0
}

// isSignatureChange reports whether both sides declare the same callable
// with different parameter lists.
func isSignatureChange(base, incoming string) bool {
	bm := funcHeaderRE.FindStringSubmatch(base)
	im := funcHeaderRE.FindStringSubmatch(incoming)
	if bm == nil || im == nil {
		return false
	}
	sameName := bm[1] == im[1]
	sameArgs := squeezeWhitespace(bm[2]) == squeezeWhitespace(im[2])
	return sameName && !sameArgs
}

// isRename reports whether the sides are token-identical except for one
// identifier consistently swapped for another. The swapped pair must be
// identifiers; a changed literal is a logic difference, not a rename.
func isRename(base, incoming string) bool {
	baseTokens := tokenRE.FindAllString(base, -1)
	incomingTokens := tokenRE.FindAllString(incoming, -1)
	if len(baseTokens) != len(incomingTokens) || len(baseTokens) == 0 {
		return false
	}
	var from, to string
	for i := range baseTokens {
		if baseTokens[i] == incomingTokens[i] {
			continue
		}
		if !identRE.MatchString(baseTokens[i]) || !identRE.MatchString(incomingTokens[i]) {
			return false
		}
		if from == "" {
			from, to = baseTokens[i], incomingTokens[i]
			continue
		}
		if baseTokens[i] != from || incomingTokens[i] != to {
			return false
		}
	}
	return from != ""
}
