package component

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/delaneyj/signalbind/pkg/reactively"
	"go.uber.org/zap"
)

type Props map[string]any

// Instance is a live component as the host sees it.
type Instance interface {
	Render() *Node
}

// Renderer, Mounter and Unmounter are the optional lifecycle methods of a
// class component's instance type.
type Renderer interface {
	Render() *Node
}

type Mounter interface {
	Mounted()
}

type Unmounter interface {
	Unmounted()
}

// Wrapper is implemented by instances that compose another instance.
type Wrapper interface {
	Unwrap() any
}

// Component is anything a Host can mount.
type Component interface {
	ComponentName() string
	Create(props Props, ctx *SetupContext) Instance
}

// ClassComponent is a Component whose instances are values of a concrete type.
type ClassComponent interface {
	Component
	InstanceType() reflect.Type
	HasRender() bool
}

// PropDeclarer components receive only their declared props in props; the
// rest land in SetupContext.Attrs.
type PropDeclarer interface {
	DeclaredProps() []string
}

// As unwraps inst until it finds a *T.
func As[T any](inst any) (*T, bool) {
	for inst != nil {
		if t, ok := inst.(*T); ok {
			return t, true
		}
		w, ok := inst.(Wrapper)
		if !ok {
			break
		}
		inst = w.Unwrap()
	}
	return nil, false
}

// Class describes a class-style component whose instances are *T.
type Class[T any] struct {
	name         string
	ctor         func(props Props) *T
	initializers []func(*T)
}

// NewClass declares a class component. A nil ctor allocates a zero T.
func NewClass[T any](name string, ctor func(props Props) *T) *Class[T] {
	if ctor == nil {
		ctor = func(Props) *T { return newInstance[T]() }
	}
	return &Class[T]{name: name, ctor: ctor}
}

// cell gives a zero-size T an address of its own; new(T) would share one.
type cell[T any] struct {
	self T
	_    *byte
}

func newInstance[T any]() *T {
	if reflect.TypeFor[T]().Size() == 0 {
		c := new(cell[T])
		return &c.self
	}
	return new(T)
}

func (c *Class[T]) ComponentName() string {
	return c.name
}

// AddInitializer registers fn to run once for every instance the class
// constructs, in registration order, right after the constructor.
func (c *Class[T]) AddInitializer(fn func(*T)) {
	c.initializers = append(c.initializers, fn)
}

// Construct builds an instance and runs the initializers on it. Every call
// yields a distinct *T: a zero-size T carries no state, so the constructor's
// pointer is replaced by a fresh one.
func (c *Class[T]) Construct(props Props) *T {
	self := c.ctor(props)
	if self != nil && reflect.TypeFor[T]().Size() == 0 {
		self = newInstance[T]()
	}
	for _, init := range c.initializers {
		init(self)
	}
	return self
}

func (c *Class[T]) Create(props Props, ctx *SetupContext) Instance {
	return &classInstance[T]{self: c.Construct(props)}
}

func (c *Class[T]) InstanceType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (c *Class[T]) HasRender() bool {
	_, ok := any((*T)(nil)).(Renderer)
	return ok
}

type classInstance[T any] struct {
	self *T
}

func (ci *classInstance[T]) Render() *Node {
	if r, ok := any(ci.self).(Renderer); ok {
		return r.Render()
	}
	return nil
}

func (ci *classInstance[T]) Mounted() {
	if m, ok := any(ci.self).(Mounter); ok {
		m.Mounted()
	}
}

func (ci *classInstance[T]) Unmounted() {
	if u, ok := any(ci.self).(Unmounter); ok {
		u.Unmounted()
	}
}

func (ci *classInstance[T]) Unwrap() any {
	return ci.self
}

// Definition is a setup-style component. Setup runs once per mount and returns
// the render function used for every render of that mount.
type Definition struct {
	Name  string
	Props []string
	Setup func(props Props, ctx *SetupContext) RenderFunc
}

func (d *Definition) ComponentName() string {
	return d.Name
}

func (d *Definition) DeclaredProps() []string {
	return d.Props
}

func (d *Definition) Create(props Props, ctx *SetupContext) Instance {
	var render RenderFunc
	if d.Setup != nil {
		render = d.Setup(props, ctx)
	}
	return setupInstance(render)
}

type setupInstance RenderFunc

func (s setupInstance) Render() *Node {
	if s == nil {
		return nil
	}
	return s()
}

// Func is a stateless function component.
type Func func(props Props, ctx *SetupContext) *Node

func (f Func) ComponentName() string {
	return FuncName(f)
}

func (f Func) Create(props Props, ctx *SetupContext) Instance {
	return setupInstance(func() *Node {
		return f(props, ctx)
	})
}

// FuncName derives a component name from a function's symbol.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "anonymous"
	}
	name := strings.TrimSuffix(rf.Name(), "[...]")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || strings.HasPrefix(name, "func") {
		return "anonymous"
	}
	return name
}

// SetupContext is handed to every component when it is created.
type SetupContext struct {
	// Attrs holds the props a component did not declare.
	Attrs Props

	host  *Host
	mount *Mount
}

func (ctx *SetupContext) Reactive() *reactively.ReactiveContext {
	return ctx.host.rctx
}

func (ctx *SetupContext) Logger() *zap.Logger {
	return ctx.host.logger.With(
		zap.String("component", ctx.mount.component.ComponentName()),
		zap.Uint64("mount", ctx.mount.id),
	)
}

// Emit calls the handler registered for event under "on<Event>" in props or
// attrs. It reports whether a handler was found.
func (ctx *SetupContext) Emit(event string, args ...any) bool {
	key := handlerKey(event)
	for _, p := range []Props{ctx.mount.props, ctx.Attrs} {
		switch h := p[key].(type) {
		case func(...any):
			h(args...)
			return true
		case func():
			h()
			return true
		}
	}
	return false
}

func handlerKey(event string) string {
	r, size := utf8.DecodeRuneInString(event)
	if r == utf8.RuneError {
		return "on"
	}
	return "on" + string(unicode.ToUpper(r)) + event[size:]
}
