package htmlpage

import (
	"fmt"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
)

// Doc is the mutable view handed to reactions. It is only valid while the
// reaction runs; use After to change the page later.
type Doc struct {
	p *Page
}

// Root returns the live tree.
func (d *Doc) Root() *html.Node { return d.p.root }

// Location returns the current location.
func (d *Doc) Location() string { return d.p.location }

// Find returns the first live element matching selector.
func (d *Doc) Find(selector string) *html.Node {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil
	}
	if found := dom.Select(d.p.root, sel); len(found) > 0 {
		return found[0]
	}
	return nil
}

// SetHTML replaces the children of the first element matching selector.
func (d *Doc) SetHTML(selector, fragment string) error {
	target := d.Find(selector)
	if target == nil {
		return fmt.Errorf("no element matches %q", selector)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		target.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}
	return nil
}

// Value returns the value of the first live control matching selector.
func (d *Doc) Value(selector string) string {
	return dom.Value(d.Find(selector))
}

// After runs fn once delay has passed, with the page locked. A
// non-positive delay runs fn immediately.
func (d *Doc) After(delay time.Duration, fn func(d *Doc)) {
	if delay <= 0 {
		fn(d)
		return
	}
	p := d.p
	t := time.AfterFunc(delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			return
		}
		fn(&Doc{p: p})
	})
	p.timers = append(p.timers, t)
}
