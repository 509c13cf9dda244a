package observer

import (
	"maps"

	"github.com/delaneyj/signalbind/pkg/component"
)

type funcConfig struct {
	name string
}

type FuncOption func(*funcConfig)

// Named overrides the component name derived from the function symbol.
func Named(name string) FuncOption {
	return func(c *funcConfig) {
		c.name = name
	}
}

// ObserveFunc turns a stateless function component into a setup component
// whose every render calls fn inside a reactive rendering boundary. fn sees
// props and pass-through attrs merged into one Props.
func ObserveFunc(fn component.Func, opts ...FuncOption) *component.Definition {
	cfg := funcConfig{name: component.FuncName(fn)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &component.Definition{
		Name: cfg.name,
		Setup: func(props component.Props, ctx *component.SetupContext) component.RenderFunc {
			return func() *component.Node {
				return component.Reactive(func() *component.Node {
					return fn(mergeProps(props, ctx.Attrs), ctx)
				})
			}
		},
	}
}

func mergeProps(props, attrs component.Props) component.Props {
	merged := make(component.Props, len(props)+len(attrs))
	maps.Copy(merged, props)
	maps.Copy(merged, attrs)
	return merged
}
