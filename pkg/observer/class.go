package observer

import (
	"fmt"
	"reflect"

	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/reactively"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ObservedClass wraps a class component so its render is reactive and the
// reactions registered on its instances live exactly as long as the mount.
type ObservedClass struct {
	base component.ClassComponent
}

// ObserveClass wraps cls. Observing an already observed class returns it as is.
func ObserveClass(cls component.ClassComponent) *ObservedClass {
	if oc, ok := cls.(*ObservedClass); ok {
		return oc
	}
	return &ObservedClass{base: cls}
}

func (c *ObservedClass) ComponentName() string {
	return c.base.ComponentName()
}

func (c *ObservedClass) InstanceType() reflect.Type {
	return c.base.InstanceType()
}

func (c *ObservedClass) HasRender() bool {
	return c.base.HasRender()
}

// Base returns the wrapped class.
func (c *ObservedClass) Base() component.ClassComponent {
	return c.base
}

func (c *ObservedClass) Create(props component.Props, ctx *component.SetupContext) component.Instance {
	inner := c.base.Create(props, ctx)
	if inner == nil {
		return nil
	}
	return &observedInstance{
		class:  c,
		inner:  inner,
		self:   selfOf(inner, reflect.PointerTo(c.base.InstanceType())),
		rctx:   ctx.Reactive(),
		logger: ctx.Logger(),
	}
}

// selfOf unwraps inst down to the value of type ptr.
func selfOf(inst any, ptr reflect.Type) any {
	for inst != nil {
		if reflect.TypeOf(inst) == ptr {
			return inst
		}
		w, ok := inst.(component.Wrapper)
		if !ok {
			return nil
		}
		inst = w.Unwrap()
	}
	return nil
}

type observedInstance struct {
	class     *ObservedClass
	inner     component.Instance
	self      any
	rctx      *reactively.ReactiveContext
	logger    *zap.Logger
	disposers []reactively.Disposer
}

func (o *observedInstance) Unwrap() any {
	return o.inner
}

func (o *observedInstance) Render() *component.Node {
	if !o.class.HasRender() {
		return component.Reactive(nil)
	}
	return component.Reactive(o.inner.Render)
}

// Mounted arms one reaction per registered entry, in registration order, and
// only then runs the original hook so it observes live reactions.
func (o *observedInstance) Mounted() {
	if len(o.disposers) > 0 {
		o.logger.Warn("mounted twice without unmount, disposing previous reactions",
			zap.Int("reactions", len(o.disposers)),
		)
		if err := o.dispose(); err != nil {
			o.logger.Error("disposing reactions", zap.Error(err))
			panic(err)
		}
	}
	if b, ok := lookup(o.class.InstanceType()); ok && o.self != nil {
		o.disposers = b.bind(o.self, o.rctx)
	}
	o.logger.Debug("reactions armed", zap.Int("reactions", len(o.disposers)))

	if m, ok := o.inner.(component.Mounter); ok {
		m.Mounted()
	}
}

// Unmounted disposes every reaction in creation order, then runs the original
// hook. Disposers that panicked are reported afterwards as one panic carrying
// every failure.
func (o *observedInstance) Unmounted() {
	err := o.dispose()
	if err != nil {
		o.logger.Error("disposing reactions", zap.Error(err))
	}
	if u, ok := o.inner.(component.Unmounter); ok {
		u.Unmounted()
	}
	if err != nil {
		panic(err)
	}
}

// dispose runs every disposer exactly once. A panicking disposer does not stop
// the ones after it; the failures are returned together.
func (o *observedInstance) dispose() error {
	disposers := o.disposers
	o.disposers = nil

	var err error
	for i, d := range disposers {
		err = multierr.Append(err, safeDispose(i, d))
	}
	return err
}

func safeDispose(i int, d reactively.Disposer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reaction %d: disposer panicked: %v", i, r)
		}
	}()
	d()
	return nil
}

// ActiveReactions reports how many reactions an observed instance currently
// holds. ok is false when inst was not created by an ObservedClass.
func ActiveReactions(inst any) (n int, ok bool) {
	for inst != nil {
		if o, isObserved := inst.(*observedInstance); isObserved {
			return len(o.disposers), true
		}
		w, isWrapper := inst.(component.Wrapper)
		if !isWrapper {
			break
		}
		inst = w.Unwrap()
	}
	return 0, false
}
