package spade

// entry pairs a Pattern with its id-list. Patterns are stored keyed by
// Pattern.Key() because a slice-backed Pattern is not itself a valid map
// key.
type entry struct {
	pattern Pattern
	idlist  IdList
}

// patternMap is a Pattern-keyed map of entries, used for both the
// current-level Frontier and the cumulative Store.
type patternMap map[string]*entry

func newPatternMap() patternMap {
	return make(patternMap)
}

// put inserts pattern/idlist under its canonical key if the key is not
// already present, implementing the "first writer wins" deduplication
// rule from the expansion driver. Returns true if this call performed
// the insertion.
func (m patternMap) put(pattern Pattern, idlist IdList) bool {
	key := pattern.Key()
	if _, exists := m[key]; exists {
		return false
	}
	m[key] = &entry{pattern: pattern, idlist: idlist}
	return true
}

// has reports whether pattern is already present.
func (m patternMap) has(pattern Pattern) bool {
	_, ok := m[pattern.Key()]
	return ok
}

// entries returns the map's entries in no particular order.
func (m patternMap) entries() []*entry {
	out := make([]*entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	return out
}
