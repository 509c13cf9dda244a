package main

import (
	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/observer"
	"github.com/delaneyj/signalbind/pkg/reactively"
)

type store struct {
	count *reactively.Reactive[int]
	title *reactively.Reactive[string]
}

func newStore(rctx *reactively.ReactiveContext) *store {
	return &store{
		count: reactively.Signal(rctx, 0),
		title: reactively.Signal(rctx, "clicks"),
	}
}

type counter struct {
	store  *store
	parity []string
}

func (c *counter) Render() *component.Node {
	return component.El("button", component.Props{"type": "button"},
		component.Textf("%s: %d", c.store.title.Read(), c.store.count.Read()),
	)
}

func parityOf(n int) string {
	if n%2 == 0 {
		return "even"
	}
	return "odd"
}

// newCounterClass declares the counter and a reaction that records every
// parity flip of the count.
func newCounterClass(s *store) *observer.ObservedClass {
	cls := component.NewClass("Counter", func(component.Props) *counter {
		return &counter{store: s}
	})
	observer.Watch(cls,
		func(self *counter, r *reactively.Reaction) string {
			return parityOf(self.store.count.Read())
		},
		func(self *counter, newValue, oldValue string, r *reactively.Reaction) {
			self.parity = append(self.parity, oldValue+"->"+newValue)
		},
		reactively.WithName("parity"),
	)
	return observer.ObserveClass(cls)
}

// Summary is a function component; props.store comes in as a pass-through attr.
func Summary(props component.Props, ctx *component.SetupContext) *component.Node {
	s := props["store"].(*store)
	n := s.count.Read()
	return component.El("p", component.Props{"class": props["class"]},
		component.Textf("%d %s, %s", n, s.title.Read(), parityOf(n)),
	)
}
