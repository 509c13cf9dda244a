package observer

import (
	"reflect"
	"slices"
	"sync"

	"github.com/delaneyj/signalbind/pkg/reactively"
	"github.com/delaneyj/signalbind/pkg/weakmap"
)

// Entry is one declared reaction. Entries are unbound: they receive the
// instance as an argument, so the registry never holds a reference to the
// instance it is keyed by.
type Entry[T any] struct {
	Expression func(self *T, r *reactively.Reaction) any
	Effect     func(self *T, newValue, oldValue any, r *reactively.Reaction)
	Options    []reactively.ReactionOption
}

// binder is the type-erased view of a per-type table used at mount time.
type binder interface {
	bind(self any, rctx *reactively.ReactiveContext) []reactively.Disposer
}

type table[T any] struct {
	entries *weakmap.Map[T, []Entry[T]]
}

// one table per instance type, keyed by reflect.Type
var registries sync.Map

func registryFor[T any]() *table[T] {
	typ := reflect.TypeFor[T]()
	if v, ok := registries.Load(typ); ok {
		return v.(*table[T])
	}
	v, _ := registries.LoadOrStore(typ, &table[T]{entries: weakmap.New[T, []Entry[T]]()})
	return v.(*table[T])
}

func lookup(typ reflect.Type) (binder, bool) {
	v, ok := registries.Load(typ)
	if !ok {
		return nil, false
	}
	return v.(binder), true
}

// Register appends e to the reactions of self.
func Register[T any](self *T, e Entry[T]) {
	registryFor[T]().entries.Update(self, func(entries []Entry[T], _ bool) []Entry[T] {
		return append(entries, e)
	})
}

// Reactions returns the entries registered for self, in registration order.
func Reactions[T any](self *T) []Entry[T] {
	entries, _ := registryFor[T]().entries.Get(self)
	return slices.Clone(entries)
}

// Forget drops every entry registered for self and reports whether any existed.
func Forget[T any](self *T) bool {
	return registryFor[T]().entries.Delete(self)
}

func (t *table[T]) bind(self any, rctx *reactively.ReactiveContext) []reactively.Disposer {
	s, ok := self.(*T)
	if !ok {
		return nil
	}
	entries, _ := t.entries.Get(s)
	disposers := make([]reactively.Disposer, 0, len(entries))
	for _, e := range entries {
		r := reactively.NewReaction(rctx,
			func(r *reactively.Reaction) any {
				return e.Expression(s, r)
			},
			func(newValue, oldValue any, r *reactively.Reaction) {
				e.Effect(s, newValue, oldValue, r)
			},
			e.Options...,
		)
		disposers = append(disposers, r.Dispose)
	}
	return disposers
}
