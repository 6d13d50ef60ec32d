// =============================================================================
// Proposal Reconciler - Header Normalizer and Column Resolver
// =============================================================================
//
// Export tools rename columns between versions: accents come and go, codes
// get appended ("Valor Financiado (R$)"), abbreviations change ("Cod." vs
// "Codigo"). Fields are therefore located by normalized label instead of by
// position or exact name.
//
// MATCHING RULES:
//   - Labels are compared after Normalize.
//   - Candidates are tried in priority order. For each candidate the header
//     is scanned left to right.
//   - A header entry matches when it equals the candidate or contains it.
//   - The first match wins. No ambiguity is detected or reported.
//
// The substring rule can pick an unintended column when several headers share
// a fragment (a bare "codigo" candidate also matches "Codigo da Proposta").
// Existing extracts depend on the current precedence, so it is not tightened.
//
// =============================================================================

package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NotFound is returned by Resolve when no candidate matches.
const NotFound = -1

// Normalize maps a column label to its comparison key: lower case, accents
// removed, every run of characters other than a-z and 0-9 replaced by a single
// space, trimmed. Never fails; idempotent.
func Normalize(label string) string {
	if label == "" {
		return ""
	}

	stripped, _, err := transform.String(stripMarks(), strings.ToLower(label))
	if err != nil {
		stripped = strings.ToLower(label)
	}

	var b strings.Builder
	b.Grow(len(stripped))

	pendingSpace := false
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return b.String()
}

// stripMarks decomposes to NFD and drops combining marks.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeAll normalizes every label of a header.
func NormalizeAll(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = Normalize(h)
	}
	return out
}

// Resolve returns the index of the column matching the first candidate that
// matches anything, or NotFound.
//
// PARAMETERS:
//   - header: The raw header labels. They are normalized here.
//   - candidates: Acceptable labels in priority order. They are normalized as
//     well, which leaves already-normalized candidates unchanged.
func Resolve(header []string, candidates []string) int {
	return ResolveNormalized(NormalizeAll(header), candidates)
}

// ResolveNormalized is Resolve for a header that is already normalized.
func ResolveNormalized(normHeader []string, candidates []string) int {
	for _, cand := range candidates {
		cand = Normalize(cand)
		if cand == "" {
			continue
		}
		for i, h := range normHeader {
			if h == cand || strings.Contains(h, cand) {
				return i
			}
		}
	}
	return NotFound
}

// Cell returns the trimmed value at idx, or nil when idx is NotFound, past
// the end of a short row, or the cell is blank.
func Cell(fields []string, idx int) *string {
	if idx < 0 || idx >= len(fields) {
		return nil
	}
	v := strings.TrimSpace(fields[idx])
	if v == "" {
		return nil
	}
	return &v
}

// Raw returns the untrimmed value at idx, or "" when it does not exist.
func Raw(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
