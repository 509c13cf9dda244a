// Package observer makes components re-render when the signals they read
// change, and binds reactions declared on class components to the mount
// lifecycle of each instance.
package observer

import (
	"errors"
	"fmt"

	"github.com/delaneyj/signalbind/pkg/component"
)

var ErrNotComponent = errors.New("observer: not a class or function component")

// Observe wraps a class component with ObserveClass and a function component
// with ObserveFunc. It only inspects v; nothing is called.
func Observe(v any) (component.Component, error) {
	switch c := v.(type) {
	case component.ClassComponent:
		return ObserveClass(c), nil
	case component.Func:
		if c != nil {
			return ObserveFunc(c), nil
		}
	case func(component.Props, *component.SetupContext) *component.Node:
		if c != nil {
			return ObserveFunc(c), nil
		}
	}
	return nil, fmt.Errorf("observe %T: %w", v, ErrNotComponent)
}
