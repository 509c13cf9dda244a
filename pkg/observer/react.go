package observer

import (
	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/delaneyj/signalbind/pkg/reactively"
)

// React declares a reaction on every instance cls constructs. Nothing runs
// until the instance is mounted through an observed class: then expr is
// tracked and effect fires with the instance each time the result changes.
// Calling React several times on one class adds one entry per call, in order.
func React[T any](
	cls *component.Class[T],
	expr func(self *T, r *reactively.Reaction) any,
	effect func(self *T, newValue, oldValue any, r *reactively.Reaction),
	opts ...reactively.ReactionOption,
) {
	e := Entry[T]{
		Expression: expr,
		Effect:     effect,
		Options:    opts,
	}
	cls.AddInitializer(func(self *T) {
		Register(self, e)
	})
}

// Watch is React with typed values. A missing old value (FireImmediately)
// arrives as the zero V.
func Watch[T, V any](
	cls *component.Class[T],
	expr func(self *T, r *reactively.Reaction) V,
	effect func(self *T, newValue, oldValue V, r *reactively.Reaction),
	opts ...reactively.ReactionOption,
) {
	React(cls,
		func(self *T, r *reactively.Reaction) any {
			return expr(self, r)
		},
		func(self *T, newValue, oldValue any, r *reactively.Reaction) {
			n, _ := newValue.(V)
			o, _ := oldValue.(V)
			effect(self, n, o, r)
		},
		opts...,
	)
}
