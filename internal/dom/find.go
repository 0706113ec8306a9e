package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// clickableClimb bounds how far FindClickableByText walks up to reach the
// element that owns the click handler.
const clickableClimb = 3

// labelClimb bounds how far FindInputByLabel searches the label's containers.
const labelClimb = 3

// FindClickableByText tries variants in priority order and returns the
// element whose visible text equals the first variant that is rendered,
// together with that variant. Matching is case-insensitive and ignores a
// trailing colon. Elements flagged hidden are skipped.
func FindClickableByText(root *html.Node, variants []string) (*html.Node, string) {
	for _, v := range variants {
		want := normalize(v)
		if want == "" {
			continue
		}
		matches := FindAll(root, func(n *html.Node) bool {
			return !Hidden(n) && normalize(ownLabel(n)) == want
		})
		if n := deepest(matches); n != nil {
			return clickTarget(n), v
		}
	}
	return nil, ""
}

// ownLabel is the text a user reads on n.
func ownLabel(n *html.Node) string {
	if IsElement(n, "input") {
		switch strings.ToLower(attrOr(n, "type", "")) {
		case "button", "submit", "reset":
			if v, ok := Attr(n, "value"); ok {
				return v
			}
		}
		return attrOr(n, "aria-label", "")
	}
	if t := Text(n); t != "" {
		return t
	}
	return attrOr(n, "aria-label", "")
}

// deepest returns the first match that has no other match beneath it.
func deepest(matches []*html.Node) *html.Node {
	for i, n := range matches {
		inner := false
		for j, other := range matches {
			if i != j && n != other && Contains(n, other) {
				inner = true
				break
			}
		}
		if !inner {
			return n
		}
	}
	return nil
}

func clickTarget(n *html.Node) *html.Node {
	cur := n
	for i := 0; i <= clickableClimb && cur != nil; i++ {
		if isClickable(cur) {
			return cur
		}
		cur = Parent(cur)
	}
	return n
}

func isClickable(n *html.Node) bool {
	if IsElement(n, "button", "a", "label") {
		return true
	}
	if IsElement(n, "input") {
		return true
	}
	switch strings.ToLower(attrOr(n, "role", "")) {
	case "button", "link", "checkbox", "menuitem", "tab", "row":
		return true
	}
	return false
}

// IsControl reports whether n accepts user input.
func IsControl(n *html.Node) bool {
	if IsElement(n, "textarea", "select") {
		return true
	}
	if IsElement(n, "input") {
		return !strings.EqualFold(attrOr(n, "type", ""), "hidden")
	}
	switch strings.ToLower(attrOr(n, "role", "")) {
	case "checkbox", "textbox", "combobox", "switch":
		return true
	}
	return false
}

// FindInputByLabel locates the control associated with the first label
// variant that resolves. Association is tried in this order for each
// variant: <label for>, a control wrapped by the label, aria-label,
// aria-labelledby, and finally the first control following the label inside
// one of its nearby containers.
func FindInputByLabel(root *html.Node, variants []string) *html.Node {
	for _, v := range variants {
		want := normalize(v)
		if want == "" {
			continue
		}
		if n := inputForLabel(root, want); n != nil {
			return n
		}
	}
	return nil
}

// HasLabeledInput reports whether any of the label variants resolves to a control.
func HasLabeledInput(root *html.Node, variants []string) bool {
	return FindInputByLabel(root, variants) != nil
}

func inputForLabel(root *html.Node, want string) *html.Node {
	labels := FindAll(root, func(n *html.Node) bool {
		return IsElement(n, "label") && !Hidden(n) && normalize(Text(n)) == want
	})
	for _, l := range labels {
		if id, ok := Attr(l, "for"); ok {
			if n := ByID(root, id); n != nil && IsControl(n) {
				return n
			}
		}
		if n := First(l, func(n *html.Node) bool { return n != l && IsControl(n) }); n != nil {
			return n
		}
	}

	if n := First(root, func(n *html.Node) bool {
		return IsControl(n) && normalize(attrOr(n, "aria-label", "")) == want
	}); n != nil {
		return n
	}

	if n := First(root, func(n *html.Node) bool {
		ids, ok := Attr(n, "aria-labelledby")
		if !ok || !IsControl(n) {
			return false
		}
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := ByID(root, id); ref != nil {
				parts = append(parts, Text(ref))
			}
		}
		return normalize(strings.Join(parts, " ")) == want
	}); n != nil {
		return n
	}

	for _, l := range labels {
		container := Parent(l)
		for i := 0; i < labelClimb && container != nil; i++ {
			if n := controlAfter(container, l); n != nil {
				return n
			}
			container = Parent(container)
		}
	}
	return nil
}

// controlAfter returns the first control inside container that follows mark in document order.
func controlAfter(container, mark *html.Node) *html.Node {
	passed := false
	var found *html.Node
	var visit func(*html.Node) bool
	visit = func(cur *html.Node) bool {
		if cur == mark {
			passed = true
			return false
		}
		if passed && cur.Type == html.ElementNode && IsControl(cur) && !Hidden(cur) {
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
	visit(container)
	return found
}

func attrOr(n *html.Node, key, fallback string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return fallback
}
