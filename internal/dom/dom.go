// Package dom holds pure queries over a parsed snapshot of the host page.
//
// Every element in a snapshot carries a transient RefAttr that the host
// adapter understands; queries return nodes, callers hand Ref(node) back to
// the adapter to mutate the live page.
package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	// RefAttr identifies an element across one snapshot/mutation cycle.
	RefAttr = "data-autolabel-ref"
	// HiddenAttr is set by adapters on elements that have no rendered box.
	HiddenAttr = "data-autolabel-hidden"
)

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Ref returns the adapter reference of n, or "" when it has none.
func Ref(n *html.Node) string {
	v, _ := Attr(n, RefAttr)
	return v
}

// IsElement reports whether n is an element of one of the given tags (any tag when none given).
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(n.Data, t) {
			return true
		}
	}
	return false
}

// Hidden reports whether the adapter flagged n as not rendered.
func Hidden(n *html.Node) bool {
	_, ok := Attr(n, HiddenAttr)
	return ok
}

// Text returns the visible text of n with whitespace collapsed.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(b *strings.Builder, n *html.Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// FindAll walks n and its descendants in document order and returns matching elements.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(cur *html.Node) {
		if cur.Type == html.ElementNode && match(cur) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return out
}

// First returns the first element in document order matching match.
func First(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var visit func(*html.Node) bool
	visit = func(cur *html.Node) bool {
		if cur.Type == html.ElementNode && match(cur) {
			found = cur
			return true
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if visit(c) {
				return true
			}
		}
		return false
	}
	if n != nil {
		visit(n)
	}
	return found
}

// Compile parses a list of CSS selectors.
func Compile(selectors []string) ([]cascadia.Sel, error) {
	out := make([]cascadia.Sel, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse selector %q: %w", s, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

// Select returns n (when it matches) followed by its matching descendants.
func Select(n *html.Node, sel cascadia.Sel) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	if n.Type == html.ElementNode && sel.Match(n) {
		out = append(out, n)
	}
	return append(out, cascadia.QueryAll(n, sel)...)
}

// SelectString is Select for a selector that still needs parsing.
func SelectString(n *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	return Select(n, sel), nil
}

// ByRef finds the element carrying ref.
func ByRef(root *html.Node, ref string) *html.Node {
	if ref == "" {
		return nil
	}
	return First(root, func(n *html.Node) bool { return Ref(n) == ref })
}

// ByID finds the element with the given id attribute.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return First(root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

// Parent returns the closest element ancestor of n.
func Parent(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// Contains reports whether n is ancestor or self of other.
func Contains(n, other *html.Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Value returns the current value of a form control as recorded in the snapshot.
func Value(n *html.Node) string {
	if v, ok := Attr(n, "value"); ok {
		return v
	}
	if IsElement(n, "textarea") {
		return Text(n)
	}
	return ""
}

// IsChecked reports whether a checkbox-like control is on.
func IsChecked(n *html.Node) bool {
	if _, ok := Attr(n, "checked"); ok {
		return true
	}
	v, _ := Attr(n, "aria-checked")
	return strings.EqualFold(v, "true")
}

// normalize folds text for comparison against UI wording.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimSpace(strings.TrimRight(s, ":"))
}
