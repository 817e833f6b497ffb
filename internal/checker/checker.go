package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/mealy/internal/model"
)

// Checker explores one model. A Checker runs once; create a new one to
// explore again.
type Checker struct {
	model       *model.Model
	workers     int
	maxDepth    int // 0 means unbounded
	keepEdges   bool
	determinism bool
	full        bool
	metrics     *Metrics
	logger      *slog.Logger
	runIDs      RunIDGenerator

	// Populated by Run.
	visited visitedSet
	initial []nodeID
	edgesMu sync.Mutex
	edges   []edge
	ran     atomic.Bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithWorkers sets the number of exploration workers. One worker (the
// default) explores in strict BFS order, so discovery paths are
// reproducible.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxDepth stops expansion at depth d. States at depth d are checked
// but not expanded.
func WithMaxDepth(d int) Option {
	return func(c *Checker) {
		if d > 0 {
			c.maxDepth = d
		}
	}
}

// WithEdges records every transition, not just the first edge into each
// state, for Graph.
func WithEdges() Option {
	return func(c *Checker) {
		c.keepEdges = true
	}
}

// WithFullExploration keeps exploring after every property is decided,
// so the visited set and Graph cover the whole reachable space.
func WithFullExploration() Option {
	return func(c *Checker) {
		c.full = true
	}
}

// WithDeterminismCheck recomputes every transition and fails the run with
// ErrCodeNondeterministic if the two successors differ.
func WithDeterminismCheck() Option {
	return func(c *Checker) {
		c.determinism = true
	}
}

// WithMetrics reports progress to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithRunIDGenerator sets the run id source. The default is UUIDv7.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *Checker) {
		c.runIDs = g
	}
}

// New creates a checker for m.
func New(m *model.Model, opts ...Option) *Checker {
	c := &Checker{
		model:   m,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run holds the shared state of one exploration.
type run struct {
	visited      visitedSet
	frontier     frontier
	found        *discoveries
	transitions  atomic.Int64
	maxDepth     atomic.Int64
	depthBounded atomic.Bool
	stopped      atomic.Bool
}

func (r *run) stop() {
	r.stopped.Store(true)
	r.frontier.close()
}

// Run explores the model and returns the result. A configuration error
// (such as a send to an unknown address) or an engine error (a panicking
// handler or predicate) aborts the run and is returned without a result.
// If ctx is cancelled, the partial result is returned with ctx.Err().
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	if !c.ran.CompareAndSwap(false, true) {
		return nil, errors.New("checker: Run called twice")
	}

	start := time.Now()
	runID := c.runIDs.Generate()
	props := c.model.Properties()
	log := c.logger.With("run", runID)
	log.Info("checker starting", "workers", c.workers, "max_depth", c.maxDepth, "properties", len(props))

	r := &run{found: newDiscoveries(props)}
	if c.workers > 1 {
		r.visited = newSharedVisited()
		r.frontier = newSharedFrontier()
	} else {
		r.visited = newLocalVisited()
		r.frontier = &fifoFrontier{}
	}
	c.visited = r.visited

	inits, err := c.model.InitStates()
	if err != nil {
		return nil, fmt.Errorf("initial states: %w", err)
	}
	for _, s := range inits {
		if !c.model.Within(s) {
			continue
		}
		id, inserted := r.visited.insert(node{state: s, parent: noParent})
		if !inserted {
			continue
		}
		c.initial = append(c.initial, id)
		c.metrics.stateDiscovered()
		if err := c.evaluate(r, id, s, log); err != nil {
			return nil, err
		}
		r.frontier.push(id)
	}
	if c.shouldStop(r) {
		r.stop()
	}

	stopWatch := context.AfterFunc(ctx, r.frontier.close)
	defer stopWatch()

	if c.workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < c.workers; i++ {
			g.Go(func() error {
				return c.work(gctx, r, log)
			})
		}
		err = g.Wait()
	} else {
		err = c.work(ctx, r, log)
	}

	if err != nil && ctx.Err() == nil {
		log.Error("checker failed", "error", err)
		return nil, err
	}

	res := c.result(r, runID, start)
	if ctx.Err() != nil && !r.stopped.Load() {
		res.Outcome = Cancelled
		log.Info("checker cancelled", "states", res.UniqueStates)
		return res, ctx.Err()
	}

	log.Info("checker finished",
		"outcome", res.Outcome.String(),
		"states", res.UniqueStates,
		"transitions", res.Transitions,
		"duration", res.Duration,
	)
	return res, nil
}

// work pops and expands nodes until the frontier is exhausted or closed.
func (c *Checker) work(ctx context.Context, r *run, log *slog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, ok := r.frontier.pop()
		if !ok {
			return nil
		}
		err := c.expand(r, id, log)
		r.frontier.done()
		c.metrics.frontier(r.frontier.len())
		if err != nil {
			r.stop()
			return err
		}
	}
}

// expand computes every successor of the node, inserts the new ones and
// evaluates properties on them.
func (c *Checker) expand(r *run, id nodeID, log *slog.Logger) error {
	n := r.visited.node(id)
	actions := c.model.Actions(n.state)
	if c.maxDepth > 0 && n.depth >= c.maxDepth {
		if len(actions) > 0 {
			r.depthBounded.Store(true)
		}
		return nil
	}

	for _, a := range actions {
		if r.stopped.Load() {
			return nil
		}
		next, err := c.model.Next(n.state, a)
		if err != nil {
			return err
		}
		r.transitions.Add(1)
		c.metrics.transition()

		if c.determinism {
			if err := c.recheck(n.state, a, next); err != nil {
				return err
			}
		}
		if !c.model.Within(next) {
			continue
		}

		child, inserted := r.visited.insert(node{state: next, parent: id, action: a, depth: n.depth + 1})
		if c.keepEdges {
			c.addEdge(id, child, a)
		}
		if !inserted {
			continue
		}
		c.metrics.stateDiscovered()
		storeMax(&r.maxDepth, int64(n.depth+1))

		if err := c.evaluate(r, child, next, log); err != nil {
			return err
		}
		if c.shouldStop(r) {
			r.stop()
			return nil
		}
		r.frontier.push(child)
	}
	return nil
}

func (c *Checker) shouldStop(r *run) bool {
	return !c.full && r.found.decided()
}

// evaluate checks every undecided property against a newly inserted state.
func (c *Checker) evaluate(r *run, id nodeID, s model.State, log *slog.Logger) error {
	for _, p := range r.found.props {
		if r.found.has(p.Name) {
			continue
		}
		ok, err := c.model.Evaluate(p, s)
		if err != nil {
			var re *model.RuntimeError
			if n := r.visited.node(id); n.parent != noParent && errors.As(err, &re) && re.Action == "" {
				re.Action = n.action.String()
			}
			return err
		}
		decides := ok
		if p.Expectation == model.Always {
			decides = !ok
		}
		if decides && r.found.record(p, id) {
			cls := classify(p.Expectation)
			c.metrics.discovery(p.Name, cls)
			log.Info("property discovered",
				"property", p.Name,
				"classification", string(cls),
				"depth", r.visited.node(id).depth,
				"state", s.Hash(),
			)
		}
	}
	return nil
}

// recheck recomputes a transition and compares successor hashes.
func (c *Checker) recheck(s model.State, a model.Action, first model.State) error {
	again, err := c.model.Next(s, a)
	if err != nil {
		return err
	}
	if !again.Equal(first) {
		return &model.RuntimeError{
			Code:      model.ErrCodeNondeterministic,
			Message:   fmt.Sprintf("successor hashes differ: %s vs %s", first.Hash(), again.Hash()),
			StateHash: s.Hash(),
			Action:    a.String(),
		}
	}
	return nil
}

func (c *Checker) result(r *run, runID string, start time.Time) *Result {
	outcome := Exhausted
	switch {
	case r.stopped.Load() && r.found.decided():
		outcome = PropertyDecided
	case r.depthBounded.Load():
		outcome = DepthBounded
	}

	res := &Result{
		RunID:        runID,
		Outcome:      outcome,
		UniqueStates: r.visited.len(),
		Transitions:  r.transitions.Load(),
		MaxDepth:     int(r.maxDepth.Load()),
		Duration:     time.Since(start),
	}
	for _, p := range r.found.props {
		pr := PropertyResult{Name: p.Name, Expectation: p.Expectation}
		id, found := r.found.get(p.Name)
		if found {
			path, states := pathTo(r.visited, id)
			pr.Discovery = &Discovery{
				Property:       p.Name,
				Expectation:    p.Expectation,
				Classification: classify(p.Expectation),
				Path:           path,
				States:         states,
			}
		}
		pr.Disposition = disposition(p.Expectation, found, outcome)
		res.Properties = append(res.Properties, pr)
	}
	return res
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
