package component

import (
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/quicktemplate"
)

type NodeKind uint8

const (
	KindText NodeKind = iota
	KindElement
	KindFragment
	KindBoundary
)

func (k NodeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindFragment:
		return "fragment"
	case KindBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// RenderFunc produces a renderable. A nil *Node renders nothing.
type RenderFunc func() *Node

// Node is the renderable tree components produce.
type Node struct {
	Kind     NodeKind
	Tag      string
	Attrs    Props
	Text     string
	Children []*Node

	render RenderFunc
}

func Text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

func El(tag string, attrs Props, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

func Fragment(children ...*Node) *Node {
	return &Node{Kind: KindFragment, Children: children}
}

// Reactive returns a reactive rendering boundary. When a host commits a tree
// it calls render inside the mount's tracking scope, so every signal read by
// render schedules a re-render of that mount when it changes. A nil render
// yields nothing.
func Reactive(render RenderFunc) *Node {
	return &Node{Kind: KindBoundary, render: render}
}

// resolve replaces every boundary in the tree with the output of its render.
func resolve(n *Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindBoundary:
		if n.render == nil {
			return nil
		}
		return resolve(n.render())
	case KindText:
		return n
	}

	c := *n
	c.Children = make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		if r := resolve(child); r != nil {
			c.Children = append(c.Children, r)
		}
	}
	return &c
}

func (n *Node) HTML() string {
	sb := &strings.Builder{}
	n.WriteHTML(sb)
	return sb.String()
}

func (n *Node) WriteHTML(w io.Writer) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	n.streamHTML(qw)
}

func (n *Node) streamHTML(qw *quicktemplate.Writer) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		qw.E().S(n.Text)
	case KindElement:
		qw.N().S("<")
		qw.N().S(n.Tag)
		for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
			v := n.Attrs[k]
			if v == nil || reflect.TypeOf(v).Kind() == reflect.Func {
				continue
			}
			qw.N().S(" ")
			qw.N().S(k)
			qw.N().S(`="`)
			qw.E().V(v)
			qw.N().S(`"`)
		}
		qw.N().S(">")
		for _, child := range n.Children {
			child.streamHTML(qw)
		}
		qw.N().S("</")
		qw.N().S(n.Tag)
		qw.N().S(">")
	case KindFragment:
		for _, child := range n.Children {
			child.streamHTML(qw)
		}
	case KindBoundary:
		resolve(n).streamHTML(qw)
	}
}

// Hash fingerprints the rendered HTML of n.
func (n *Node) Hash() uint64 {
	d := xxhash.New()
	n.WriteHTML(d)
	return d.Sum64()
}
