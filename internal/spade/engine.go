package spade

import (
	"context"
	"sync"

	"github.com/patternmine/spade/pkg/parallel"
)

// Occurrence is one (Record, EventSet) pair from the ingestion stream:
// at sequence/transaction Record, these elementary events occurred
// together.
type Occurrence struct {
	Record Record
	Events EventSet
}

type joinKind int

const (
	kindTemporal joinKind = iota
	kindItemset
)

// joinTask is one unit of the parallel fan-out within a BFS level: a
// candidate output pattern plus the two id-lists to join and the rule
// that joins them.
type joinTask struct {
	pattern Pattern
	kind    joinKind
	a, b    IdList
}

// Engine holds the current BFS frontier and the cumulative store of
// every frequent pattern discovered so far. The zero value is not
// usable; construct with NewEngine.
type Engine struct {
	mu    sync.RWMutex
	store patternMap
	// frontier holds the patterns alive at the current BFS level. It
	// starts out aliasing store's entries (the length-1 patterns from
	// ingestion) and is replaced wholesale by each Next call.
	frontier patternMap
	dirty    bool

	workers    int
	candidates *candidateGenerator
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithWorkers sets the worker-pool size used to parallelize candidate
// joins within a BFS level. The default is parallel.DefaultPoolConfig's
// worker count.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an empty Engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		store:      newPatternMap(),
		frontier:   newPatternMap(),
		candidates: newCandidateGenerator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Insert appends one occurrence to the length-1 id-lists of every
// elementary event in Events. Safe for concurrent use.
func (e *Engine) Insert(r Record, events EventSet) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events.Iterate(func(id int) bool {
		p := NewPattern(NewEventSet(id))
		key := p.Key()
		ent, ok := e.store[key]
		if !ok {
			ent = &entry{pattern: p}
			e.store[key] = ent
			e.frontier[key] = ent
		}
		ent.idlist = append(ent.idlist, r)
		return true
	})
	e.dirty = true
}

// Construct drains occurrences, inserting each one, and finalizes the
// initial length-1 frontier (sorting and deduplicating every id-list).
// It returns early with ctx.Err() if ctx is canceled before the
// channel is drained.
func (e *Engine) Construct(ctx context.Context, occurrences <-chan Occurrence) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case occ, ok := <-occurrences:
			if !ok {
				e.mu.Lock()
				e.finalizeLocked()
				e.mu.Unlock()
				return nil
			}
			e.Insert(occ.Record, occ.Events)
		}
	}
}

// finalizeLocked sorts and deduplicates every store id-list. Callers
// must hold e.mu. A no-op once already finalized, until the next
// Insert marks the engine dirty again.
func (e *Engine) finalizeLocked() {
	if !e.dirty {
		return
	}
	for _, ent := range e.store {
		ent.idlist = sortAndDedup(ent.idlist)
	}
	e.dirty = false
}

// expandPair dispatches one candidate pair to the applicable §4.3
// rule(s), returning the join tasks it produces. A pair that matches no
// rule produces no tasks.
func expandPair(pair CandidatePair) []joinTask {
	pa, pb := pair.A.pattern, pair.B.pattern
	ka, kb := pa.Len(), pb.Len()

	var tasks []joinTask
	switch {
	case ka == kb && pa.SamePrefix(pb):
		// Rule E.
		tasks = append(tasks, joinTask{
			pattern: pa.Extend(pb.Suffix()),
			kind:    kindTemporal,
			a:       pair.A.idlist,
			b:       pair.B.idlist,
		})
		if !pa.Equal(pb) {
			tasks = append(tasks, joinTask{
				pattern: pb.Extend(pa.Suffix()),
				kind:    kindTemporal,
				a:       pair.B.idlist,
				b:       pair.A.idlist,
			})
			union := pa.Suffix().Union(pb.Suffix())
			if !union.Equal(pa.Suffix()) && !union.Equal(pb.Suffix()) {
				tasks = append(tasks, joinTask{
					pattern: pa.WithExtendedSuffix(union),
					kind:    kindItemset,
					a:       pair.A.idlist,
					b:       pair.B.idlist,
				})
			}
		}
	case ka+1 == kb && pb.Prefix().Equal(pa):
		// Rule X+.
		tasks = append(tasks, joinTask{
			pattern: pa.Extend(pb.Suffix()),
			kind:    kindTemporal,
			a:       pair.A.idlist,
			b:       pair.B.idlist,
		})
	case kb+1 == ka && pa.Prefix().Equal(pb):
		// Rule X-.
		tasks = append(tasks, joinTask{
			pattern: pb.Extend(pa.Suffix()),
			kind:    kindTemporal,
			a:       pair.B.idlist,
			b:       pair.A.idlist,
		})
	}
	return tasks
}

// Next advances the engine by one BFS level: candidates are generated
// from the current frontier filtered by minSup, each candidate's
// applicable rules are dispatched into join tasks, and the tasks are
// joined in parallel across a worker pool before being merged into the
// next frontier. Every next-frontier entry is also appended to the
// store. A frontier with no survivors leaves the next frontier empty
// (Next is a no-op on an already-exhausted engine).
func (e *Engine) Next(ctx context.Context, minSup int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e.mu.Lock()
	e.finalizeLocked()
	frontier := e.frontier
	e.mu.Unlock()

	if len(frontier) == 0 {
		return nil
	}

	pairs := e.candidates.generate(frontier, minSup)

	var tasks []joinTask
	for {
		pair, ok := pairs.Dequeue()
		if !ok {
			break
		}
		tasks = append(tasks, expandPair(pair)...)
	}

	next := newPatternMap()
	if len(tasks) == 0 {
		e.mu.Lock()
		e.frontier = next
		e.mu.Unlock()
		return nil
	}

	cfg := parallel.DefaultPoolConfig()
	if e.workers > 0 {
		cfg = cfg.WithWorkers(e.workers)
	}

	aggregated := parallel.ParallelAggregate(ctx, tasks, cfg,
		func(t joinTask) (string, *entry) {
			var idlist IdList
			switch t.kind {
			case kindTemporal:
				idlist = joinTemporal(t.a, t.b)
			case kindItemset:
				idlist = joinItemset(t.a, t.b)
			}
			return t.pattern.Key(), &entry{pattern: t.pattern, idlist: idlist}
		},
		// Both operands of a merge are valid joins for the same key; the
		// one already present is kept (first writer wins).
		func(existing, _ *entry) *entry { return existing },
	)

	e.mu.Lock()
	defer e.mu.Unlock()
	for key, ent := range aggregated {
		if ent.idlist.Len() == 0 {
			continue
		}
		next[key] = ent
		if _, exists := e.store[key]; !exists {
			e.store[key] = ent
		}
	}
	e.frontier = next
	return nil
}

// FrontierSize returns the number of patterns alive at the current BFS
// level.
func (e *Engine) FrontierSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.frontier)
}

// StoreSize returns the cumulative number of patterns discovered so
// far.
func (e *Engine) StoreSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.store)
}
