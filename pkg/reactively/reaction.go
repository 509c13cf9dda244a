package reactively

import "reflect"

type reactionConfig struct {
	name            string
	fireImmediately bool
	equals          func(a, b any) bool
}

type ReactionOption func(*reactionConfig)

// WithName labels a reaction for logs and debugging.
func WithName(name string) ReactionOption {
	return func(c *reactionConfig) {
		c.name = name
	}
}

// FireImmediately runs the effect once right after the first evaluation, with
// the zero value as the old value.
func FireImmediately() ReactionOption {
	return func(c *reactionConfig) {
		c.fireImmediately = true
	}
}

// WithEquals replaces the default structural comparison (reflect.DeepEqual)
// used to decide whether the expression result changed.
func WithEquals(equals func(a, b any) bool) ReactionOption {
	return func(c *reactionConfig) {
		c.equals = equals
	}
}

// Reaction tracks an expression and runs an effect whenever its result
// changes. The *Reaction doubles as the control handle passed to both.
type Reaction struct {
	n    node
	name string
}

// NewReaction evaluates expr inside a tracking scope right away. effect is not
// called for that first evaluation unless FireImmediately is given; afterwards
// it runs, untracked, each time a dependency change produces a different
// result.
func NewReaction[T any](
	rctx *ReactiveContext,
	expr func(r *Reaction) T,
	effect func(newValue, oldValue T, r *Reaction),
	opts ...ReactionOption,
) *Reaction {
	cfg := reactionConfig{equals: reflect.DeepEqual}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Reaction{name: cfg.name}
	r.n.rctx = rctx
	r.n.effect = true
	r.n.state = CacheDirty

	var (
		value, prev T
		initialized bool
		pending     bool
	)
	r.n.recompute = func() bool {
		next := expr(r)
		if !initialized {
			initialized = true
			value = next
			pending = cfg.fireImmediately
			return false
		}
		if cfg.equals(value, next) {
			return false
		}
		prev, value = value, next
		pending = true
		return false
	}
	r.n.settle = func() {
		if !pending || r.n.disposed {
			return
		}
		pending = false
		newValue, oldValue := value, prev
		rctx.Untracked(func() {
			effect(newValue, oldValue, r)
		})
	}

	r.n.update()
	r.n.settle()
	rctx.flush()
	return r
}

func (r *Reaction) Name() string {
	return r.name
}

// Dispose stops the reaction. The effect never runs again.
func (r *Reaction) Dispose() {
	r.n.dispose()
}

func (r *Reaction) Disposed() bool {
	return r.n.disposed
}

// Tracker records the dependencies of the functions passed to Track and calls
// onInvalidate, once per change, when any of them changes. Unlike an effect it
// never re-runs anything by itself; the owner decides when to Track again.
type Tracker struct {
	n node
}

func NewTracker(rctx *ReactiveContext, onInvalidate func()) *Tracker {
	t := &Tracker{}
	t.n.rctx = rctx
	t.n.effect = true
	t.n.invalidate = onInvalidate
	return t
}

// Track runs fn, replacing the previously recorded dependencies with the ones
// read by fn. A disposed tracker runs fn untracked.
func (t *Tracker) Track(fn func()) {
	if t.n.disposed {
		t.n.rctx.Untracked(fn)
		return
	}
	t.n.recompute = func() bool {
		fn()
		return false
	}
	defer func() { t.n.recompute = nil }()
	t.n.update()
	t.n.rctx.flush()
}

// Dependencies reports how many dependency links the last Track recorded.
func (t *Tracker) Dependencies() int {
	return len(t.n.sources)
}

func (t *Tracker) Dispose() {
	t.n.dispose()
}

func (t *Tracker) Disposed() bool {
	return t.n.disposed
}
