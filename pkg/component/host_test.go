package component_test

import (
	"testing"

	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/reactively"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type greeter struct {
	name   *reactively.Reactive[string]
	events []string
}

func (g *greeter) Render() *component.Node {
	g.events = append(g.events, "render")
	return component.El("p", nil, component.Reactive(func() *component.Node {
		return component.Textf("hello %s", g.name.Read())
	}))
}

func (g *greeter) Mounted() {
	g.events = append(g.events, "mounted")
}

func (g *greeter) Unmounted() {
	g.events = append(g.events, "unmounted")
}

type blank struct{}

var sharedBlank blank

func newGreeterClass(rctx *reactively.ReactiveContext) *component.Class[greeter] {
	return component.NewClass("Greeter", func(props component.Props) *greeter {
		return &greeter{name: reactively.Signal(rctx, props["name"].(string))}
	})
}

func TestHostLifecycle(t *testing.T) {
	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx, component.WithLogger(zaptest.NewLogger(t)))

	m, err := host.Mount(newGreeterClass(rctx), component.Props{"name": "ada"})
	require.NoError(t, err)
	assert.True(t, m.IsMounted())
	assert.Equal(t, 1, host.Mounted())
	assert.Equal(t, "<p>hello ada</p>", m.HTML())

	g, ok := component.As[greeter](m.Instance())
	require.True(t, ok)
	assert.Equal(t, []string{"render", "mounted"}, g.events)

	g.name.Write("grace")
	assert.Equal(t, 1, host.Pending())
	assert.Equal(t, "<p>hello ada</p>", m.HTML())
	assert.Equal(t, 1, host.Flush())
	assert.Equal(t, "<p>hello grace</p>", m.HTML())
	assert.Equal(t, 2, m.Renders())
	assert.Equal(t, 2, m.Commits())

	m.Invalidate()
	host.Flush()
	assert.Equal(t, 3, m.Renders())
	assert.Equal(t, 2, m.Commits(), "identical output is not committed")

	m.Unmount()
	m.Unmount()
	assert.False(t, m.IsMounted())
	assert.Equal(t, 0, host.Mounted())
	assert.Equal(t, []string{"render", "mounted", "render", "render", "unmounted"}, g.events)

	g.name.Write("linus")
	assert.Equal(t, 0, host.Pending())
	assert.Equal(t, 0, host.Flush())

	require.NoError(t, m.Remount())
	assert.Equal(t, "<p>hello linus</p>", m.HTML())
	assert.ErrorIs(t, m.Remount(), component.ErrAlreadyMounted)
}

func TestHostAutoFlush(t *testing.T) {
	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx, component.WithAutoFlush())
	m, err := host.Mount(newGreeterClass(rctx), component.Props{"name": "ada"})
	require.NoError(t, err)

	g, _ := component.As[greeter](m.Instance())
	rctx.Batch(func() {
		g.name.Write("x")
		g.name.Write("y")
	})
	assert.Equal(t, "<p>hello y</p>", m.HTML())
	assert.Equal(t, 2, m.Renders())
	assert.Equal(t, 0, host.Pending())
}

func TestHostUnmountDropsPendingRender(t *testing.T) {
	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx)
	m, err := host.Mount(newGreeterClass(rctx), component.Props{"name": "ada"})
	require.NoError(t, err)

	g, _ := component.As[greeter](m.Instance())
	g.name.Write("grace")
	assert.Equal(t, 1, host.Pending())
	m.Unmount()
	assert.Equal(t, 0, host.Pending())
	assert.Equal(t, 0, host.Flush())
}

func TestHostMountErrors(t *testing.T) {
	host := component.NewHost(nil)

	_, err := host.Mount(nil, nil)
	assert.ErrorIs(t, err, component.ErrNilComponent)

	_, err = host.Mount(nilInstance{}, nil)
	assert.ErrorIs(t, err, component.ErrNilInstance)
}

type nilInstance struct{}

func (nilInstance) ComponentName() string { return "Nil" }

func (nilInstance) Create(component.Props, *component.SetupContext) component.Instance {
	return nil
}

func TestClass(t *testing.T) {
	t.Run("initializers run once per instance in order", func(t *testing.T) {
		cls := component.NewClass[blank]("Blank", nil)
		var calls []string
		cls.AddInitializer(func(*blank) { calls = append(calls, "first") })
		cls.AddInitializer(func(*blank) { calls = append(calls, "second") })

		a := cls.Construct(nil)
		b := cls.Construct(nil)
		assert.NotSame(t, a, b)
		assert.Equal(t, []string{"first", "second", "first", "second"}, calls)
	})

	t.Run("zero-size instances are distinct", func(t *testing.T) {
		cls := component.NewClass("Blank", func(component.Props) *blank {
			return &sharedBlank
		})
		a := cls.Construct(nil)
		b := cls.Construct(nil)
		assert.NotSame(t, a, b)
		assert.NotSame(t, &sharedBlank, a)
	})

	t.Run("render capability", func(t *testing.T) {
		assert.False(t, component.NewClass[blank]("Blank", nil).HasRender())
		assert.True(t, newGreeterClass(&reactively.ReactiveContext{}).HasRender())
	})

	t.Run("class without render renders nothing", func(t *testing.T) {
		host := component.NewHost(nil)
		m, err := host.Mount(component.NewClass[blank]("Blank", nil), nil)
		require.NoError(t, err)
		assert.Nil(t, m.Output())
		assert.Equal(t, "", m.HTML())
	})
}

func TestDefinition(t *testing.T) {
	rctx := &reactively.ReactiveContext{}
	host := component.NewHost(rctx)
	setups := 0
	var clicked []any

	def := &component.Definition{
		Name:  "Button",
		Props: []string{"label"},
		Setup: func(props component.Props, ctx *component.SetupContext) component.RenderFunc {
			setups++
			assert.Same(t, rctx, ctx.Reactive())
			assert.NotNil(t, ctx.Logger())
			return func() *component.Node {
				assert.True(t, ctx.Emit("click", props["label"]))
				assert.False(t, ctx.Emit("hover"))
				return component.El("button", ctx.Attrs, component.Text(props["label"].(string)))
			}
		},
	}

	m, err := host.Mount(def, component.Props{
		"label":   "go",
		"class":   "primary",
		"onClick": func(args ...any) { clicked = append(clicked, args...) },
	})
	require.NoError(t, err)
	assert.Equal(t, `<button class="primary">go</button>`, m.HTML())

	m.SetProps(component.Props{
		"label":   "stop",
		"onClick": func(args ...any) { clicked = append(clicked, args...) },
	})
	host.Flush()
	assert.Equal(t, `<button>stop</button>`, m.HTML())
	assert.Equal(t, 1, setups)
	assert.Equal(t, []any{"go", "stop"}, clicked)
}

func TestFunc(t *testing.T) {
	host := component.NewHost(nil)
	m, err := host.Mount(component.Func(Badge), component.Props{"count": 3})
	require.NoError(t, err)
	assert.Equal(t, "Badge", m.Component().ComponentName())
	assert.Equal(t, `<span>3</span>`, m.HTML())

	anon := component.Func(func(component.Props, *component.SetupContext) *component.Node {
		return nil
	})
	assert.Equal(t, "anonymous", anon.ComponentName())
}

func Badge(props component.Props, ctx *component.SetupContext) *component.Node {
	return component.El("span", nil, component.Textf("%d", props["count"]))
}

func TestAs(t *testing.T) {
	g := &greeter{}
	_, ok := component.As[greeter](nil)
	assert.False(t, ok)
	got, ok := component.As[greeter](g)
	assert.True(t, ok)
	assert.Same(t, g, got)
	_, ok = component.As[blank](g)
	assert.False(t, ok)
}
