// Package page samples the open/closed condition of the watched page.
package page

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/labi-le/clickerwatch/pkg/ptr"
	"golang.org/x/net/html"
)

type State uint8

const (
	Unknown State = iota
	Closed
	Open
)

func FromBool(open bool) State {
	if open {
		return Open
	}
	return Closed
}

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Bool returns the state as a nullable bool, nil for Unknown.
func (s State) Bool() *bool {
	if s == Unknown {
		return nil
	}
	return ptr.Of(s == Open)
}

// Event is a host page lifecycle notification.
type Event uint8

const (
	// EventLoad fires when the page finished (re)loading.
	EventLoad Event = iota + 1
	// EventVisible fires when the page became visible after being hidden.
	EventVisible
)

func (e Event) String() string {
	switch e {
	case EventLoad:
		return "load"
	case EventVisible:
		return "visible"
	default:
		return "event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Sampler reads the current condition of the page. Sample never mutates the
// page; a missing target element is reported as Closed with a nil error.
type Sampler interface {
	Sample(ctx context.Context) (State, error)
	Events() <-chan Event
	Close() error
}

const (
	DefaultSelector  = "tbody.choices"
	DefaultOpenClass = "open"
)

var ErrBadSelector = errors.New("bad selector")

// Selector is a compound `tag.class.class` selector plus the class that marks
// the element as open.
type Selector struct {
	Tag       string
	Classes   []string
	OpenClass string
}

func ParseSelector(raw, openClass string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " >+~[]#:*,") {
		return Selector{}, fmt.Errorf("%w: %q", ErrBadSelector, raw)
	}
	if openClass == "" || strings.ContainsAny(openClass, " .") {
		return Selector{}, fmt.Errorf("%w: open class %q", ErrBadSelector, openClass)
	}

	parts := strings.Split(raw, ".")
	sel := Selector{Tag: strings.ToLower(parts[0]), OpenClass: openClass}
	for _, c := range parts[1:] {
		if c == "" {
			return Selector{}, fmt.Errorf("%w: %q", ErrBadSelector, raw)
		}
		sel.Classes = append(sel.Classes, c)
	}
	if sel.Tag == "" && len(sel.Classes) == 0 {
		return Selector{}, fmt.Errorf("%w: %q", ErrBadSelector, raw)
	}

	return sel, nil
}

func (s Selector) String() string {
	var b strings.Builder
	b.WriteString(s.Tag)
	for _, c := range s.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}

func (s Selector) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.Tag != "" && n.Data != s.Tag {
		return false
	}

	classes := classList(n)
	for _, c := range s.Classes {
		if !slices.Contains(classes, c) {
			return false
		}
	}
	return true
}

// Find returns the first matching element in document order.
func (s Selector) Find(root *html.Node) *html.Node {
	for n := range root.Descendants() {
		if s.Match(n) {
			return n
		}
	}
	return nil
}

// State reports whether the first match carries the open class.
func (s Selector) State(root *html.Node) State {
	el := s.Find(root)
	if el == nil {
		return Closed
	}
	return FromBool(slices.Contains(classList(el), s.OpenClass))
}

// Script is the in-page expression equivalent to State.
func (s Selector) Script() string {
	return fmt.Sprintf(
		`() => { const el = document.querySelector(%s); return !!el && el.classList.contains(%s); }`,
		strconv.Quote(s.String()),
		strconv.Quote(s.OpenClass),
	)
}

func classList(n *html.Node) []string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}
