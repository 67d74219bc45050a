package spade

import (
	"sort"

	"github.com/patternmine/spade/pkg/collections"
)

// recordScratchPool supplies reusable scratch buffers for the two-pointer
// joins below. Buffers are trimmed and copied into a right-sized IdList
// before being returned to the caller, so the pooled backing array is
// never aliased by a stored pattern's id-list.
var recordScratchPool = collections.NewSlicePool[Record](64)

// IdList is the sorted, deduplicated sequence of Records witnessing a
// pattern.
type IdList []Record

// Len satisfies the support definition adopted in this implementation:
// support is the id-list length, not the distinct-sid count (see
// DistinctSidCount for the alternative definition, kept as a read-only
// helper).
func (l IdList) Len() int {
	return len(l)
}

// DistinctSidCount returns the number of distinct sequence ids covered
// by l. This is not used for pruning or reporting in this
// implementation, but is exposed for callers that want it.
func (l IdList) DistinctSidCount() int {
	if len(l) == 0 {
		return 0
	}
	count := 1
	for i := 1; i < len(l); i++ {
		if l[i].Sid != l[i-1].Sid {
			count++
		}
	}
	return count
}

// sortAndDedup sorts l by (Sid, Eid) and removes exact duplicates,
// returning a new slice.
func sortAndDedup(l IdList) IdList {
	out := make(IdList, len(l))
	copy(out, l)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	if len(out) == 0 {
		return out
	}
	deduped := out[:1]
	for _, r := range out[1:] {
		if !r.Equal(deduped[len(deduped)-1]) {
			deduped = append(deduped, r)
		}
	}
	return deduped
}

// joinTemporal computes "A followed later by B in the same sid": a
// two-pointer merge over sorted A, B that emits every B[j] for which
// some A[i] in the same sid has a strictly smaller eid. Pure,
// allocates a fresh output slice, and safe for concurrent use since
// neither input is mutated.
func joinTemporal(a, b IdList) IdList {
	scratch := recordScratchPool.Get()
	defer recordScratchPool.Put(scratch)

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Sid < b[j].Sid:
			i++
		case a[i].Sid > b[j].Sid:
			j++
		case a[i].Eid < b[j].Eid:
			*scratch = append(*scratch, b[j])
			j++
		default:
			// a[i] is the earliest-eid A record in this sid (A is
			// sorted ascending) and still does not precede b[j]; a
			// later B record in the same sid, with a larger eid, might
			// still qualify, so advance B rather than discard a[i].
			j++
		}
	}

	out := make(IdList, len(*scratch))
	copy(out, *scratch)
	return out
}

// joinItemset computes "A and B co-occur at the same (sid, eid)": a
// two-pointer merge that emits the shared Record only when both sid and
// eid match, advancing both cursors on a match and the smaller-keyed
// cursor otherwise.
func joinItemset(a, b IdList) IdList {
	scratch := recordScratchPool.Get()
	defer recordScratchPool.Put(scratch)

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Equal(b[j]) {
			*scratch = append(*scratch, a[i])
			i++
			j++
		} else if a[i].Less(b[j]) {
			i++
		} else {
			j++
		}
	}

	out := make(IdList, len(*scratch))
	copy(out, *scratch)
	return out
}
