// Package htmlpage implements host.Page over an in-memory golang.org/x/net/html
// tree. Reactions registered with OnClick and OnNavigate stand in for the
// page's own scripts, which makes it usable for offline extraction and as a
// scripted double of the mail client in tests.
package htmlpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/host"
)

// ErrStaleRef is returned when a ref no longer resolves in the live tree.
var ErrStaleRef = errors.New("element is no longer rendered")

// EventKind names a mutation made through the host.Page surface.
type EventKind string

const (
	EventClick    EventKind = "click"
	EventSetValue EventKind = "set-value"
	EventNavigate EventKind = "navigate"
)

// Event records one mutation, in the order it happened.
type Event struct {
	Kind  EventKind
	Ref   string
	Text  string
	Value string
}

// ClickFunc reacts to a click on target (or a descendant of it).
type ClickFunc func(d *Doc, target *html.Node)

// NavigateFunc reacts to a location change.
type NavigateFunc func(d *Doc, location string)

type clickHook struct {
	sel cascadia.Sel
	fn  ClickFunc
}

// Page is safe for concurrent use; reactions run with the page locked.
type Page struct {
	mu       sync.Mutex
	root     *html.Node
	location string
	seq      int
	hooks    []clickHook
	onNav    []NavigateFunc
	events   []Event
	timers   []*time.Timer
	closed   bool
}

var _ host.Page = (*Page)(nil)

// New parses markup as the initial document.
func New(markup, location string) (*Page, error) {
	return Load(strings.NewReader(markup), location)
}

// Load parses r as the initial document.
func Load(r io.Reader, location string) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Page{root: root, location: location}, nil
}

// OnClick registers fn for clicks that land on an element matching selector
// or bubble up through one.
func (p *Page) OnClick(selector string, fn ClickFunc) error {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return fmt.Errorf("parse selector %q: %w", selector, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, clickHook{sel: sel, fn: fn})
	return nil
}

// OnNavigate registers fn for location changes.
func (p *Page) OnNavigate(fn NavigateFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNav = append(p.onNav, fn)
}

// Events returns a copy of the mutation log.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Mutations counts clicks and value changes, ignoring navigation.
func (p *Page) Mutations() int {
	n := 0
	for _, e := range p.Events() {
		if e.Kind != EventNavigate {
			n++
		}
	}
	return n
}

// Close stops pending delayed reactions.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}

// Snapshot stamps refs on the live tree and returns an independent copy.
func (p *Page) Snapshot(ctx context.Context) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stamp(p.root)
	return clone(p.root), nil
}

// Click toggles checkboxes like a browser would, then runs matching reactions.
func (p *Page) Click(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	target := dom.ByRef(p.root, ref)
	if target == nil {
		return fmt.Errorf("click %s: %w", ref, ErrStaleRef)
	}
	p.events = append(p.events, Event{Kind: EventClick, Ref: ref, Text: dom.Text(target)})

	if dom.IsElement(target, "input") {
		if t, _ := dom.Attr(target, "type"); strings.EqualFold(t, "checkbox") {
			if dom.IsChecked(target) {
				removeAttr(target, "checked")
			} else {
				setAttr(target, "checked", "")
			}
		}
	}

	type call struct {
		fn ClickFunc
		n  *html.Node
	}
	var calls []call
	for n := target; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, h := range p.hooks {
			if h.sel.Match(n) {
				calls = append(calls, call{fn: h.fn, n: n})
			}
		}
	}
	d := &Doc{p: p}
	for _, c := range calls {
		c.fn(d, c.n)
	}
	return nil
}

// SetValue stores value on an input or textarea.
func (p *Page) SetValue(ctx context.Context, ref, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	target := dom.ByRef(p.root, ref)
	if target == nil {
		return fmt.Errorf("set value %s: %w", ref, ErrStaleRef)
	}
	if !dom.IsElement(target, "input", "textarea") {
		return fmt.Errorf("set value %s: <%s> is not editable", ref, target.Data)
	}
	setAttr(target, "value", value)
	p.events = append(p.events, Event{Kind: EventSetValue, Ref: ref, Value: value})
	return nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

func (p *Page) SetLocation(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = location
	p.events = append(p.events, Event{Kind: EventNavigate, Value: location})
	d := &Doc{p: p}
	for _, fn := range p.onNav {
		fn(d, location)
	}
	return nil
}

func (p *Page) stamp(n *html.Node) {
	if n.Type == html.ElementNode && dom.Ref(n) == "" {
		p.seq++
		setAttr(n, dom.RefAttr, strconv.Itoa(p.seq))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.stamp(c)
	}
}

func clone(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(clone(c))
	}
	return out
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// Do runs fn with the page locked, for inspecting or editing state outside a reaction.
func (p *Page) Do(fn func(d *Doc)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&Doc{p: p})
}
