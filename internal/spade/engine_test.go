package spade

import (
	"context"
	"testing"
)

func canonicalOccurrences() []Occurrence {
	return []Occurrence{
		{Record: Record{Sid: 0, Eid: 1}, Events: NewEventSet(0)},
		{Record: Record{Sid: 0, Eid: 2}, Events: NewEventSet(0, 1)},
		{Record: Record{Sid: 1, Eid: 1}, Events: NewEventSet(1)},
		{Record: Record{Sid: 1, Eid: 1}, Events: NewEventSet(2)},
		{Record: Record{Sid: 2, Eid: 1}, Events: NewEventSet(0, 1, 2)},
		{Record: Record{Sid: 2, Eid: 2}, Events: NewEventSet(1, 2)},
	}
}

func constructFrom(t *testing.T, e *Engine, occs []Occurrence) {
	t.Helper()
	ch := make(chan Occurrence, len(occs))
	for _, occ := range occs {
		ch <- occ
	}
	close(ch)
	if err := e.Construct(context.Background(), ch); err != nil {
		t.Fatalf("Construct failed: %v", err)
	}
}

func reportSupport(t *testing.T, entries []ReportEntry, key string) (int, bool) {
	t.Helper()
	for _, ent := range entries {
		if ent.Pattern.Key() == key {
			return ent.Support, true
		}
	}
	return 0, false
}

func TestConstruct_CanonicalDataset_SingletonSupports(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	report := e.Report()

	supp0, ok := reportSupport(t, report, NewPattern(NewEventSet(0)).Key())
	if !ok || supp0 != 3 {
		t.Fatalf("expected support 3 for {0}, got %d (found=%v)", supp0, ok)
	}
	supp1, ok := reportSupport(t, report, NewPattern(NewEventSet(1)).Key())
	if !ok || supp1 != 4 {
		t.Fatalf("expected support 4 for {1}, got %d (found=%v)", supp1, ok)
	}
	supp2, ok := reportSupport(t, report, NewPattern(NewEventSet(2)).Key())
	if !ok || supp2 != 3 {
		t.Fatalf("expected support 3 for {2}, got %d (found=%v)", supp2, ok)
	}
}

func TestNext_CanonicalDataset_DrivesToFixedPoint(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	ctx := context.Background()
	for i := 0; i < 4 && e.FrontierSize() > 0; i++ {
		if err := e.Next(ctx, 0); err != nil {
			t.Fatalf("Next failed at level %d: %v", i, err)
		}
	}

	if e.FrontierSize() != 0 {
		t.Fatalf("expected frontier to reach a fixed point, still has %d entries", e.FrontierSize())
	}
	if e.StoreSize() <= 3 {
		t.Fatalf("expected store to grow beyond the 3 singleton patterns, got %d", e.StoreSize())
	}

	report := e.Report()
	if len(report) == 0 {
		t.Fatal("expected a non-empty report")
	}
	for i := 1; i < len(report); i++ {
		prev, cur := report[i-1], report[i]
		switch {
		case prev.Score != cur.Score:
			if prev.Score < cur.Score {
				t.Fatalf("report not sorted by score descending at index %d", i)
			}
		case prev.Support != cur.Support:
			if prev.Support < cur.Support {
				t.Fatalf("report not sorted by support descending at index %d", i)
			}
		default:
			if cur.Pattern.Less(prev.Pattern) {
				t.Fatalf("report not sorted by pattern ascending as a tiebreaker at index %d", i)
			}
		}
	}
}

func TestNext_FirstLevel_ProducesNonEmptyFrontier(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	if err := e.Next(context.Background(), 0); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if e.FrontierSize() == 0 {
		t.Fatal("expected a non-empty second-level frontier")
	}
}

func TestNext_AntimonotonicSupport(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	before := e.Report()
	maxBefore := 0
	for _, ent := range before {
		if ent.Support > maxBefore {
			maxBefore = ent.Support
		}
	}

	if err := e.Next(context.Background(), 0); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	after := e.Report()
	for _, ent := range after {
		if ent.Pattern.Len() == 2 && ent.Support > maxBefore {
			t.Fatalf("expanded pattern %s has support %d exceeding any length-1 support %d", ent.Pattern, ent.Support, maxBefore)
		}
	}
}

func TestNext_MinSupportFloor(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	report := e.Report()
	maxSupport := 0
	for _, ent := range report {
		if ent.Support > maxSupport {
			maxSupport = ent.Support
		}
	}

	if err := e.Next(context.Background(), maxSupport); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if e.FrontierSize() != 0 {
		t.Fatalf("expected next frontier to be empty when minSup equals the maximum id-list length, got %d", e.FrontierSize())
	}
}

func TestConstruct_EmptyDataset(t *testing.T) {
	e := NewEngine()
	ch := make(chan Occurrence)
	close(ch)

	if err := e.Construct(context.Background(), ch); err != nil {
		t.Fatalf("Construct failed: %v", err)
	}

	if e.FrontierSize() != 0 || e.StoreSize() != 0 {
		t.Fatalf("expected an empty engine, got frontier=%d store=%d", e.FrontierSize(), e.StoreSize())
	}
	if report := e.Report(); len(report) != 0 {
		t.Fatalf("expected an empty report, got %v", report)
	}
}

func TestConstruct_SingleRecord_NextEmptiesFrontier(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, []Occurrence{
		{Record: Record{Sid: 0, Eid: 1}, Events: NewEventSet(0)},
	})

	report := e.Report()
	if len(report) != 1 {
		t.Fatalf("expected exactly one pattern in the store, got %d", len(report))
	}
	if report[0].Support != 1 {
		t.Fatalf("expected support 1, got %d", report[0].Support)
	}

	if err := e.Next(context.Background(), 0); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if e.FrontierSize() != 0 {
		t.Fatalf("expected the self-pair's temporal join to leave the frontier empty, got %d", e.FrontierSize())
	}
}

func TestInsert_DuplicateRecordsDeduplicate(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, []Occurrence{
		{Record: Record{Sid: 0, Eid: 1}, Events: NewEventSet(0)},
		{Record: Record{Sid: 0, Eid: 1}, Events: NewEventSet(0)},
	})

	report := e.Report()
	if len(report) != 1 {
		t.Fatalf("expected exactly one pattern, got %d", len(report))
	}
	if report[0].Support != 1 {
		t.Fatalf("expected duplicate records to collapse to support 1, got %d", report[0].Support)
	}
}

func TestNext_ContextCanceled(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Next(ctx, 0); err == nil {
		t.Fatal("expected Next to report the canceled context")
	}
}

func TestNext_Coverage_EveryNextPatternTracesToACandidatePair(t *testing.T) {
	e := NewEngine()
	constructFrom(t, e, canonicalOccurrences())

	e.mu.RLock()
	frontierBefore := make(map[string]*entry, len(e.frontier))
	for k, v := range e.frontier {
		frontierBefore[k] = v
	}
	e.mu.RUnlock()

	pairs := e.candidates.generate(frontierBefore, 0)
	reachable := make(map[string]bool)
	for {
		pair, ok := pairs.Dequeue()
		if !ok {
			break
		}
		for _, task := range expandPair(pair) {
			reachable[task.pattern.Key()] = true
		}
	}

	if err := e.Next(context.Background(), 0); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for key := range e.frontier {
		if !reachable[key] {
			t.Fatalf("pattern %q in the next frontier was not produced by any candidate pair's rule dispatch", key)
		}
	}
}
