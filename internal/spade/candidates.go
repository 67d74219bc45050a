package spade

import (
	"sort"

	"github.com/patternmine/spade/pkg/collections"
)

// CandidatePair is one pair of frontier patterns handed to the
// expansion driver. A and B may be the same entry (self-pairing, Rule
// E's ka==kb, P_a==P_b case).
type CandidatePair struct {
	A, B *entry
}

// candidateGenerator filters the frontier by minSup and enumerates
// candidate pairs over survivors in a fixed, sorted order. It reuses a
// VersionedBitset across levels to mark which frontier entries survive
// the minSup filter, avoiding a fresh allocation per Next call.
type candidateGenerator struct {
	survivors *collections.VersionedBitset
}

func newCandidateGenerator() *candidateGenerator {
	return &candidateGenerator{survivors: collections.NewVersionedBitset(64)}
}

// generate returns the candidate pairs for one BFS level, in a FIFO
// queue that preserves their fixed enumeration order: patterns whose
// id-list length strictly exceeds minSup, enumerated in Pattern order,
// with (P_a, P_a) followed by (P_a, P_b) for every P_b after it.
func (g *candidateGenerator) generate(frontier patternMap, minSup int) *collections.Queue[CandidatePair] {
	all := frontier.entries()
	sort.Slice(all, func(i, j int) bool { return all[i].pattern.Less(all[j].pattern) })

	g.survivors.Reset()
	for i, e := range all {
		if e.idlist.Len() > minSup {
			g.survivors.Set(i)
		}
	}

	survivors := make([]*entry, 0, len(all))
	for i, e := range all {
		if g.survivors.Test(i) {
			survivors = append(survivors, e)
		}
	}

	pairs := collections.NewQueue[CandidatePair](len(survivors) * (len(survivors) + 1) / 2)
	for a := range survivors {
		pairs.Enqueue(CandidatePair{A: survivors[a], B: survivors[a]})
		for b := a + 1; b < len(survivors); b++ {
			pairs.Enqueue(CandidatePair{A: survivors[a], B: survivors[b]})
		}
	}
	return pairs
}
