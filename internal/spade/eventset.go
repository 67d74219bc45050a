package spade

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxEventID is the largest elementary event identifier an EventSet can
// hold. Event identifiers range over 0..MaxEventID inclusive.
const MaxEventID = 255

// eventSetWords is the number of uint64 words needed to address
// MaxEventID+1 bits.
const eventSetWords = (MaxEventID + 1 + 63) / 64

// EventSet is a set of elementary event identifiers in 0..=255,
// represented as a fixed-size bitmask so it is comparable and cheap to
// copy. Once placed in a Pattern, an EventSet is never mutated.
type EventSet [eventSetWords]uint64

// NewEventSet builds an EventSet from a list of elementary event ids.
// Ids outside 0..MaxEventID are ignored.
func NewEventSet(ids ...int) EventSet {
	var es EventSet
	for _, id := range ids {
		es.add(id)
	}
	return es
}

func (e *EventSet) add(id int) {
	if id < 0 || id > MaxEventID {
		return
	}
	e[id/64] |= 1 << uint(id%64)
}

// Contains reports whether id is a member of e.
func (e EventSet) Contains(id int) bool {
	if id < 0 || id > MaxEventID {
		return false
	}
	return e[id/64]&(1<<uint(id%64)) != 0
}

// IsEmpty reports whether e has no members.
func (e EventSet) IsEmpty() bool {
	for _, w := range e {
		if w != 0 {
			return false
		}
	}
	return true
}

// Cardinality returns the number of members of e.
func (e EventSet) Cardinality() int {
	count := 0
	for _, w := range e {
		count += bits.OnesCount64(w)
	}
	return count
}

// Union returns the set union of e and other; neither operand is
// modified.
func (e EventSet) Union(other EventSet) EventSet {
	var out EventSet
	for i := range out {
		out[i] = e[i] | other[i]
	}
	return out
}

// Equal reports whether e and other contain exactly the same members.
func (e EventSet) Equal(other EventSet) bool {
	return e == other
}

// Subset reports whether every member of e is also a member of other.
func (e EventSet) Subset(other EventSet) bool {
	for i := range e {
		if e[i]&^other[i] != 0 {
			return false
		}
	}
	return true
}

// Iterate calls fn for each member id in ascending order, stopping early
// if fn returns false.
func (e EventSet) Iterate(fn func(id int) bool) {
	for wordIdx, word := range e {
		base := wordIdx * 64
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			if !fn(base + tz) {
				return
			}
			word &= word - 1
		}
	}
}

// ToSlice returns the members of e in ascending order.
func (e EventSet) ToSlice() []int {
	out := make([]int, 0, e.Cardinality())
	e.Iterate(func(id int) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Less gives EventSet a total order: shorter sets sort first; sets of
// equal cardinality compare by ascending member id.
func (e EventSet) Less(other EventSet) bool {
	ec, oc := e.Cardinality(), other.Cardinality()
	if ec != oc {
		return ec < oc
	}
	a, b := e.ToSlice(), other.ToSlice()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String renders e as "{a,b,c}" with members in ascending order.
func (e EventSet) String() string {
	members := e.ToSlice()
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
