package spade

import (
	"fmt"
	"sort"
	"strings"
)

// ReportEntry is one reported pattern: its canonical form, its score
// (the product of its EventSets' cardinalities), and its support
// (id-list length, per the resolved support definition).
type ReportEntry struct {
	Pattern Pattern
	Score   int
	Support int
}

// Report returns every discovered pattern in the store, ordered by
// score descending, then support descending, then pattern lexicographic
// order ascending as a final, fully deterministic tiebreaker.
func (e *Engine) Report() []ReportEntry {
	e.mu.Lock()
	e.finalizeLocked()
	entries := e.store.entries()
	e.mu.Unlock()

	out := make([]ReportEntry, 0, len(entries))
	for _, ent := range entries {
		out = append(out, ReportEntry{
			Pattern: ent.pattern,
			Score:   patternScore(ent.pattern),
			Support: ent.idlist.Len(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		return out[i].Pattern.Less(out[j].Pattern)
	})

	return out
}

// patternScore computes the product of a pattern's EventSets'
// cardinalities.
func patternScore(p Pattern) int {
	score := 1
	for _, es := range p {
		score *= es.Cardinality()
	}
	return score
}

// DebugRender dumps every current-frontier pattern whose id-list length
// is at least 30, one per line, in total pattern order (Pattern.Less).
func (e *Engine) DebugRender() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := make([]*entry, 0, len(e.frontier))
	for _, ent := range e.frontier {
		if ent.idlist.Len() >= 30 {
			entries = append(entries, ent)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].pattern.Less(entries[j].pattern)
	})

	var b strings.Builder
	for _, ent := range entries {
		fmt.Fprintf(&b, "%s support=%d\n", ent.pattern.String(), ent.idlist.Len())
	}
	return b.String()
}
