package reactively

type CacheState int

const (
	CacheClean CacheState = iota // reactive value is valid, no need to recompute
	CacheCheck                   // reactive value might be stale, check parent nodes to decide whether to recompute
	CacheDirty                   // reactive value is invalid, parents have changed, value needs to be recomputed
)

// Disposer permanently deactivates a subscription. Calling it again is a no-op.
type Disposer func()

// ReactiveContext holds the tracking state shared by every node created
// against it. The zero value is ready to use. A context is not safe for
// concurrent use.
type ReactiveContext struct {
	current         *node
	currentGets     []*node
	currentGetIndex int
	effectQueue     []*node
	batchDepth      int
	stabilizing     bool
}

// node is the untyped part of every reactive value, effect, reaction and tracker.
type node struct {
	rctx      *ReactiveContext
	sources   []*node
	observers []*node
	state     CacheState
	effect    bool
	queued    bool
	disposed  bool
	cleanups  []func()

	// recompute evaluates the node inside a tracking scope and reports whether
	// its value changed. nil for plain signals.
	recompute func() bool
	// settle runs after a queued node was brought up to date.
	settle func()
	// invalidate replaces re-evaluation for trackers.
	invalidate func()
}

// track records n as a dependency of the computation currently running.
func (n *node) track() {
	rctx := n.rctx
	cur := rctx.current
	if cur == nil {
		return
	}
	if rctx.currentGets == nil &&
		rctx.currentGetIndex < len(cur.sources) &&
		cur.sources[rctx.currentGetIndex] == n {
		rctx.currentGetIndex++
	} else {
		rctx.currentGets = append(rctx.currentGets, n)
	}
}

func (n *node) stale(state CacheState) {
	if n.state >= state {
		return
	}
	// If we were previously clean, then we know that we may need to update to get the new value
	if n.state == CacheClean && n.effect && !n.queued && !n.disposed {
		n.queued = true
		n.rctx.effectQueue = append(n.rctx.effectQueue, n)
	}
	n.state = state
	for _, ob := range n.observers {
		ob.stale(CacheCheck)
	}
}

// notify marks every observer dirty after a write changed the value of n.
func (n *node) notify() {
	for _, ob := range n.observers {
		ob.stale(CacheDirty)
	}
}

// run the computation fn, updating the cached value
func (n *node) update() {
	rctx := n.rctx

	// Evaluate the reactive function body, dynamically capturing any other reactives used
	prevCurrent, prevGets, prevIndex := rctx.current, rctx.currentGets, rctx.currentGetIndex
	rctx.current, rctx.currentGets, rctx.currentGetIndex = n, nil, 0
	rctx.batchDepth++
	defer func() {
		rctx.current, rctx.currentGets, rctx.currentGetIndex = prevCurrent, prevGets, prevIndex
		rctx.batchDepth--
	}()

	n.runCleanups()
	changed := n.recompute()
	if n.disposed {
		return
	}
	n.link()

	// handle diamond dependencies if we're the parent of a diamond.
	if changed {
		for _, ob := range n.observers {
			ob.state = CacheDirty
		}
	}
	n.state = CacheClean
}

// link reconciles the sources captured during the last run with the previous ones.
func (n *node) link() {
	rctx := n.rctx
	gets, idx := rctx.currentGets, rctx.currentGetIndex

	if gets != nil {
		// remove all old sources' observer links to us
		n.removeParentObservers(idx)
		if idx > 0 {
			n.sources = append(n.sources[:idx:idx], gets...)
		} else {
			n.sources = gets
		}
		// Add ourselves to the end of the parent observers array
		for _, source := range n.sources[idx:] {
			source.observers = append(source.observers, n)
		}
	} else if idx < len(n.sources) {
		n.removeParentObservers(idx)
		n.sources = n.sources[:idx]
	}
}

// if dirty, or a parent turns out to be dirty.
func (n *node) updateIfNecessary() {
	n.checkSources()
	if n.state == CacheDirty {
		n.update()
	}
	n.state = CacheClean
}

// checkSources resolves a CacheCheck state by bringing sources up to date,
// stopping at the first one that actually changed.
func (n *node) checkSources() {
	if n.state != CacheCheck {
		return
	}
	for _, source := range n.sources {
		// can change n.state
		source.updateIfNecessary()
		if n.state == CacheDirty {
			// If our computation changes to no longer use some sources, we don't
			// want to update() a source we used last time, but now don't use.
			break
		}
	}
}

// refresh is how the effect queue drains a node.
func (n *node) refresh() {
	if n.invalidate != nil {
		n.checkSources()
		dirty := n.state == CacheDirty
		n.state = CacheClean
		if dirty {
			n.invalidate()
		}
		return
	}
	n.updateIfNecessary()
	if n.settle != nil {
		n.settle()
	}
}

func (n *node) removeParentObservers(startIndex int) {
	if startIndex >= len(n.sources) {
		return
	}
	for _, source := range n.sources[startIndex:] {
		source.removeObserver(n)
	}
}

func (n *node) removeObserver(ob *node) {
	for i, o := range n.observers {
		if o != ob {
			continue
		}
		last := len(n.observers) - 1
		n.observers[i] = n.observers[last]
		n.observers[last] = nil
		n.observers = n.observers[:last]
		return
	}
}

func (n *node) runCleanups() {
	cleanups := n.cleanups
	n.cleanups = nil
	for _, cleanup := range cleanups {
		cleanup()
	}
}

func (n *node) dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.removeParentObservers(0)
	n.sources = nil
	n.state = CacheClean
	n.runCleanups()
}

// flush drains the effect queue unless a batch or a drain is already in progress.
func (rctx *ReactiveContext) flush() {
	if rctx.batchDepth > 0 || rctx.stabilizing {
		return
	}
	rctx.Stabilize()
}

// Stabilize runs all queued effects, reactions and tracker invalidations.
// Writes outside a batch stabilize automatically.
func (rctx *ReactiveContext) Stabilize() {
	if rctx.stabilizing {
		return
	}
	rctx.stabilizing = true
	defer func() { rctx.stabilizing = false }()

	for len(rctx.effectQueue) > 0 {
		n := rctx.effectQueue[0]
		rctx.effectQueue[0] = nil
		rctx.effectQueue = rctx.effectQueue[1:]
		n.queued = false
		if n.disposed {
			continue
		}
		n.refresh()
	}
	rctx.effectQueue = nil
}

// Batch defers effect processing until fn returns. Batches nest; effects run
// once, when the outermost batch ends.
func (rctx *ReactiveContext) Batch(fn func()) {
	func() {
		rctx.batchDepth++
		defer func() { rctx.batchDepth-- }()
		fn()
	}()
	rctx.flush()
}

// Untracked runs fn without recording its reads as dependencies of the
// enclosing computation.
func (rctx *ReactiveContext) Untracked(fn func()) {
	prevCurrent, prevGets, prevIndex := rctx.current, rctx.currentGets, rctx.currentGetIndex
	rctx.current, rctx.currentGets, rctx.currentGetIndex = nil, nil, 0
	defer func() {
		rctx.current, rctx.currentGets, rctx.currentGetIndex = prevCurrent, prevGets, prevIndex
	}()
	fn()
}

// Tracking reports whether a computation is currently recording dependencies.
func (rctx *ReactiveContext) Tracking() bool {
	return rctx.current != nil
}

// Pending reports the number of queued effects waiting for stabilization.
func (rctx *ReactiveContext) Pending() int {
	return len(rctx.effectQueue)
}

// OnCleanup registers fn to run before the current computation re-runs and
// when it is disposed.
func OnCleanup(rctx *ReactiveContext, fn func()) {
	if rctx.current == nil {
		panic("onCleanup must be called from within a reactive function")
	}
	rctx.current.cleanups = append(rctx.current.cleanups, fn)
}
