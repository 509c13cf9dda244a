package component

import (
	"errors"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/signalbind/pkg/reactively"
	"go.uber.org/zap"
)

var (
	ErrNilComponent   = errors.New("component: nil component")
	ErrNilInstance    = errors.New("component: create returned no instance")
	ErrAlreadyMounted = errors.New("component: already mounted")
)

type HostOption func(*Host)

func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		h.logger = l
	}
}

// WithAutoFlush re-renders invalidated mounts as soon as the reactive context
// settles instead of waiting for Flush.
func WithAutoFlush() HostOption {
	return func(h *Host) {
		h.autoFlush = true
	}
}

// Host drives component lifecycles: create, render, mount, re-render on
// invalidation, unmount. Mounts are independent roots. A Host shares the
// single-threaded model of its reactive context.
type Host struct {
	rctx      *reactively.ReactiveContext
	logger    *zap.Logger
	autoFlush bool

	nextID  uint64
	mounted int
	dirty   mapset.Set[*Mount]
	queue   []*Mount
}

func NewHost(rctx *reactively.ReactiveContext, opts ...HostOption) *Host {
	if rctx == nil {
		rctx = &reactively.ReactiveContext{}
	}
	h := &Host{
		rctx:  rctx,
		dirty: mapset.NewThreadUnsafeSet[*Mount](),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = Logger()
	}
	return h
}

func (h *Host) Reactive() *reactively.ReactiveContext {
	return h.rctx
}

// Mounted reports how many mounts are currently live.
func (h *Host) Mounted() int {
	return h.mounted
}

// Pending reports how many mounts wait for Flush.
func (h *Host) Pending() int {
	return h.dirty.Cardinality()
}

// Mount creates an instance of c, renders it and calls its Mounted hook.
func (h *Host) Mount(c Component, props Props) (*Mount, error) {
	if c == nil {
		return nil, ErrNilComponent
	}
	h.nextID++
	m := &Mount{
		host:      h,
		id:        h.nextID,
		component: c,
	}
	ctx := &SetupContext{host: h, mount: m}
	m.props, ctx.Attrs = splitProps(c, props)
	m.ctx = ctx

	inst := c.Create(m.props, ctx)
	if inst == nil {
		return nil, fmt.Errorf("mount %s: %w", c.ComponentName(), ErrNilInstance)
	}
	m.instance = inst

	m.attach()
	return m, nil
}

// Flush re-renders every invalidated mount, in invalidation order, and
// reports how many were rendered.
func (h *Host) Flush() int {
	rendered := 0
	for len(h.queue) > 0 {
		m := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]
		h.dirty.Remove(m)
		if !m.mounted {
			continue
		}
		m.render()
		rendered++
	}
	h.queue = nil
	return rendered
}

func (h *Host) schedule(m *Mount) {
	if !h.dirty.Add(m) {
		return
	}
	h.queue = append(h.queue, m)
	if h.autoFlush {
		h.Flush()
	}
}

func (h *Host) unschedule(m *Mount) {
	if !h.dirty.Contains(m) {
		return
	}
	h.dirty.Remove(m)
	h.queue = slices.DeleteFunc(h.queue, func(q *Mount) bool {
		return q == m
	})
}

func splitProps(c Component, props Props) (declared, attrs Props) {
	declared, attrs = Props{}, Props{}
	pd, ok := c.(PropDeclarer)
	if !ok {
		for k, v := range props {
			declared[k] = v
		}
		return declared, attrs
	}
	names := pd.DeclaredProps()
	for k, v := range props {
		if slices.Contains(names, k) {
			declared[k] = v
		} else {
			attrs[k] = v
		}
	}
	return declared, attrs
}

// Mount is one live component on a Host.
type Mount struct {
	host      *Host
	id        uint64
	component Component
	instance  Instance
	props     Props
	ctx       *SetupContext
	tracker   *reactively.Tracker

	mounted bool
	output  *Node
	hash    uint64
	renders int
	commits int
}

func (m *Mount) ID() uint64 {
	return m.id
}

func (m *Mount) Component() Component {
	return m.component
}

func (m *Mount) Instance() Instance {
	return m.instance
}

func (m *Mount) IsMounted() bool {
	return m.mounted
}

// Output is the last committed tree with every boundary resolved.
func (m *Mount) Output() *Node {
	return m.output
}

func (m *Mount) HTML() string {
	return m.output.HTML()
}

// Renders counts render calls; Commits counts renders whose output differed
// from the previous commit.
func (m *Mount) Renders() int {
	return m.renders
}

func (m *Mount) Commits() int {
	return m.commits
}

// Invalidate schedules a re-render.
func (m *Mount) Invalidate() {
	if !m.mounted {
		return
	}
	m.host.schedule(m)
}

// SetProps replaces the props in place, so closures captured during setup
// observe the new values, and schedules a re-render.
func (m *Mount) SetProps(props Props) {
	declared, attrs := splitProps(m.component, props)
	clear(m.props)
	for k, v := range declared {
		m.props[k] = v
	}
	clear(m.ctx.Attrs)
	for k, v := range attrs {
		m.ctx.Attrs[k] = v
	}
	m.Invalidate()
}

// Unmount calls the instance's Unmounted hook and stops tracking its renders.
// Unmounting twice is a no-op.
func (m *Mount) Unmount() {
	if !m.mounted {
		return
	}
	m.mounted = false
	m.host.mounted--
	m.host.unschedule(m)
	defer m.tracker.Dispose()

	m.host.logger.Debug("unmount",
		zap.String("component", m.component.ComponentName()),
		zap.Uint64("mount", m.id),
	)
	if u, ok := m.instance.(Unmounter); ok {
		u.Unmounted()
	}
}

// Remount mounts the same instance again after an Unmount.
func (m *Mount) Remount() error {
	if m.mounted {
		return fmt.Errorf("remount %s: %w", m.component.ComponentName(), ErrAlreadyMounted)
	}
	m.attach()
	return nil
}

func (m *Mount) attach() {
	m.tracker = reactively.NewTracker(m.host.rctx, m.Invalidate)
	m.render()
	m.mounted = true
	m.host.mounted++

	m.host.logger.Debug("mount",
		zap.String("component", m.component.ComponentName()),
		zap.Uint64("mount", m.id),
		zap.Int("dependencies", m.tracker.Dependencies()),
	)
	if mm, ok := m.instance.(Mounter); ok {
		mm.Mounted()
	}
}

func (m *Mount) render() {
	m.renders++

	var raw, out *Node
	m.host.rctx.Untracked(func() {
		raw = m.instance.Render()
	})
	m.tracker.Track(func() {
		out = resolve(raw)
	})

	hash := out.Hash()
	if m.commits > 0 && hash == m.hash {
		return
	}
	m.output = out
	m.hash = hash
	m.commits++
	m.host.logger.Debug("commit",
		zap.String("component", m.component.ComponentName()),
		zap.Uint64("mount", m.id),
		zap.Int("render", m.renders),
		zap.Uint64("hash", hash),
	)
}
