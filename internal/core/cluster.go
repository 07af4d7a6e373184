package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mcatool/mca/internal/models"
)

// ClusterRecords groups conflict records into patterns: first by kind, then
// by a normalized shape of the two sides, so near-duplicate conflicts
// across files (the same parameter removed at every call site, the same
// import churn) collapse into a single decision. Patterns come back
// ordered by descending occurrence count, ties broken by the first-seen
// file path.
func ClusterRecords(records []*models.ConflictRecord) []*models.ConflictPattern {
	grouped := make(map[string]*models.ConflictPattern)
	var order []string // first-seen key order, for stable tie-breaking

	for _, record := range records {
		key := clusterKey(record)
		pattern, ok := grouped[key]
		if !ok {
			pattern = &models.ConflictPattern{Kind: record.Kind}
			grouped[key] = pattern
			order = append(order, key)
		}
		pattern.Records = append(pattern.Records, record)
	}

	patterns := make([]*models.ConflictPattern, 0, len(grouped))
	for _, key := range order {
		patterns = append(patterns, grouped[key])
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Occurrences() != patterns[j].Occurrences() {
			return patterns[i].Occurrences() > patterns[j].Occurrences()
		}
		pi, pj := patterns[i].Records[0], patterns[j].Records[0]
		if pi.Path != pj.Path {
			return pi.Path < pj.Path
		}
		return pi.Ordinal < pj.Ordinal
	})

	for i, pattern := range patterns {
		pattern.ID = fmt.Sprintf("p%d", i+1)
		pattern.Description = describe(pattern)
	}
	return patterns
}

// clusterKey builds the grouping key. Kinds whose resolution plausibly
// spans files (signature changes, imports, renames, formatting,
// documentation) cluster on shape alone; logic differences and
// delete-vs-modify additionally require the same enclosing symbol, so
// unrelated semantic conflicts never share one decision.
func clusterKey(r *models.ConflictRecord) string {
	key := string(r.Kind) + "|" + shapeDigest(r.BaseText, r.IncomText)
	switch r.Kind {
	case models.KindLogicDifference, models.KindDeleteModify:
		key += "|" + r.Symbol
	}
	return key
}

// shapeDigest hashes a placeholder rendering of both sides: identifiers
// present on both sides become "c", one-sided identifiers "x", numbers
// "0". Two conflicts with the same structural edit hash identically even
// when local names differ.
func shapeDigest(base, incoming string) string {
	baseTokens := tokenRE.FindAllString(base, -1)
	incomingTokens := tokenRE.FindAllString(incoming, -1)

	inBase := make(map[string]bool, len(baseTokens))
	for _, t := range baseTokens {
		inBase[t] = true
	}
	inIncoming := make(map[string]bool, len(incomingTokens))
	for _, t := range incomingTokens {
		inIncoming[t] = true
	}

	shared := func(t string) bool { return inBase[t] && inIncoming[t] }
	h := sha256.New()
	h.Write([]byte(normalizeTokens(baseTokens, shared)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeTokens(incomingTokens, shared)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var numberRE = regexp.MustCompile(`^[0-9]`)

func normalizeTokens(tokens []string, shared func(string) bool) string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		switch {
		case numberRE.MatchString(t):
			out[i] = "0"
		case identRE.MatchString(t) && shared(t):
			out[i] = "c"
		case identRE.MatchString(t):
			out[i] = "x"
		default:
			out[i] = t
		}
	}
	return strings.Join(out, " ")
}

// describe produces the pattern's representative one-line description.
func describe(p *models.ConflictPattern) string {
	where := p.Records[0].Path
	if symbol := p.Records[0].Symbol; symbol != "" {
		where = symbol + " (" + where + ")"
	}
	files := len(p.Files())
	if files > 1 {
		return fmt.Sprintf("%s near %s: %d occurrences across %d files", p.Kind, where, p.Occurrences(), files)
	}
	if p.Occurrences() > 1 {
		return fmt.Sprintf("%s near %s: %d occurrences", p.Kind, where, p.Occurrences())
	}
	return fmt.Sprintf("%s near %s", p.Kind, where)
}
