package spade

import "strings"

// Pattern is a non-empty ordered sequence of EventSets, interpreted
// temporally between EventSets and conjunctively within one. A length-1
// Pattern is a single elementary event.
type Pattern []EventSet

// NewPattern builds a Pattern from the given EventSets, copying them
// into a fresh slice so later mutation of the input does not alias the
// Pattern.
func NewPattern(sets ...EventSet) Pattern {
	p := make(Pattern, len(sets))
	copy(p, sets)
	return p
}

// Len returns the number of EventSets in the pattern.
func (p Pattern) Len() int {
	return len(p)
}

// Prefix returns the pattern with its last EventSet removed. Prefix of
// a length-1 pattern is empty.
func (p Pattern) Prefix() Pattern {
	if len(p) == 0 {
		return nil
	}
	return NewPattern(p[:len(p)-1]...)
}

// Suffix returns the pattern's last EventSet.
func (p Pattern) Suffix() EventSet {
	return p[len(p)-1]
}

// Extend returns a new pattern equal to p with e appended.
func (p Pattern) Extend(e EventSet) Pattern {
	out := make(Pattern, len(p)+1)
	copy(out, p)
	out[len(p)] = e
	return out
}

// WithExtendedSuffix returns a new pattern equal to p with its last
// EventSet replaced by e (used by the itemset-join rule, which grows the
// suffix in place rather than appending a new temporal step).
func (p Pattern) WithExtendedSuffix(e EventSet) Pattern {
	out := make(Pattern, len(p))
	copy(out, p)
	out[len(p)-1] = e
	return out
}

// SamePrefix reports whether p and other have equal length-1 prefixes
// (all EventSets but the last are pairwise equal).
func (p Pattern) SamePrefix(other Pattern) bool {
	if len(p) != len(other) {
		return false
	}
	for i := 0; i < len(p)-1; i++ {
		if !p[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether p and other contain the same EventSets in the
// same order.
func (p Pattern) Equal(other Pattern) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !p[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Less gives Pattern a total order: lexicographic comparison of
// EventSets, with a shorter pattern that is a strict prefix of a longer
// one sorting first.
func (p Pattern) Less(other Pattern) bool {
	n := len(p)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if !p[i].Equal(other[i]) {
			return p[i].Less(other[i])
		}
	}
	return len(p) < len(other)
}

// Key returns a canonical string rendering of p suitable for use as a
// map key (Pattern, being a slice, is not itself comparable).
func (p Pattern) Key() string {
	var b strings.Builder
	for i, e := range p {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(e.String())
	}
	return b.String()
}

func (p Pattern) String() string {
	return p.Key()
}
