package reactively

// Reactive is a signal or a memo. Reads inside a tracked computation
// register the reactive as a dependency of that computation.
type Reactive[T comparable] struct {
	n     node
	value T
	fn    func() T
}

func Signal[T comparable](rctx *ReactiveContext, value T) *Reactive[T] {
	r := &Reactive[T]{value: value}
	r.n.rctx = rctx
	return r
}

// Memo lazily derives a value from other reactives and caches it until one of
// them changes.
func Memo[T comparable](rctx *ReactiveContext, fn func() T) *Reactive[T] {
	r := &Reactive[T]{fn: fn}
	r.n.rctx = rctx
	r.n.state = CacheDirty
	r.n.recompute = r.recompute
	return r
}

func (r *Reactive[T]) recompute() bool {
	oldValue := r.value
	r.value = r.fn()
	return oldValue != r.value
}

func (r *Reactive[T]) Read() T {
	r.n.track()
	if r.fn != nil {
		r.n.updateIfNecessary()
		r.n.rctx.flush()
	}
	return r.value
}

// Peek returns the current value without tracking it.
func (r *Reactive[T]) Peek() T {
	if r.fn != nil {
		r.n.updateIfNecessary()
	}
	return r.value
}

// WriteFn turns r into a memo over nextValueFn.
func (r *Reactive[T]) WriteFn(nextValueFn func() T) {
	// As far as I know Go doesn't have a way to do function equality checks
	// so I'm just going to assume that it's always different and pay the cost
	r.fn = nextValueFn
	r.n.recompute = r.recompute
	r.n.stale(CacheDirty)
	r.n.rctx.flush()
}

func (r *Reactive[T]) Write(nextValue T) {
	if r.fn != nil {
		r.n.removeParentObservers(0)
		r.n.sources = nil
		r.n.recompute = nil
		r.n.state = CacheClean
		r.fn = nil
	}
	if r.value == nextValue {
		return
	}
	r.value = nextValue
	r.n.notify()
	r.n.rctx.flush()
}

// Update writes fn applied to the current, untracked value.
func (r *Reactive[T]) Update(fn func(T) T) {
	r.Write(fn(r.Peek()))
}

// Effect runs fn immediately and again whenever a reactive it read changes.
func Effect(rctx *ReactiveContext, fn func()) Disposer {
	n := &node{
		rctx:   rctx,
		effect: true,
		state:  CacheDirty,
	}
	n.recompute = func() bool {
		fn()
		return false
	}
	n.update()
	rctx.flush()
	return n.dispose
}
