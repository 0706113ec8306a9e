package filters

import (
	"context"
	"fmt"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host"
)

// Rule is a transient handle to a rendered rule row. It is only valid for
// the snapshot it came from.
type Rule struct {
	// Ref identifies the row itself.
	Ref string
	// OpenRef is the element that opens the rule for editing.
	OpenRef string
	Text    string
}

// Matcher finds the rule that carries a label's marker.
type Matcher struct {
	Page   host.Page
	Texts  Texts
	Prefix string
	Logger *zap.Logger
	rows   cascadia.Sel
}

// NewMatcher compiles the row selector.
func NewMatcher(page host.Page, texts Texts, prefix string, logger *zap.Logger) (*Matcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sel, err := cascadia.Parse(texts.RuleRowSelector)
	if err != nil {
		return nil, fmt.Errorf("parse rule row selector %q: %w", texts.RuleRowSelector, err)
	}
	return &Matcher{Page: page, Texts: texts, Prefix: prefix, Logger: logger, rows: sel}, nil
}

// FindByLabel returns the first rendered rule carrying the marker for
// label, or nil when there is none.
func (m *Matcher) FindByLabel(ctx context.Context, label string) (*Rule, error) {
	root, err := m.Page.Snapshot(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.HostOperationFailed, "snapshot filter list", err)
	}
	marker := NewMarker(m.Prefix, label)
	rule := MatchRows(root, m.rows, marker, m.Texts.Edit)
	if rule == nil {
		m.Logger.Debug("no rule carries marker", zap.Stringer("marker", marker))
		return nil, nil
	}
	m.Logger.Debug("rule matched", zap.Stringer("marker", marker), zap.String("ref", rule.Ref))
	return rule, nil
}

// MatchRows scans rows in document order. Rows that contain a matching
// nested row are skipped so the innermost rule is returned.
func MatchRows(root *html.Node, rows cascadia.Sel, marker Marker, editTexts []string) *Rule {
	var hits []*html.Node
	for _, row := range dom.Select(root, rows) {
		if marker.FoundIn(dom.Text(row)) {
			hits = append(hits, row)
		}
	}
	for _, row := range hits {
		if hasNestedHit(row, hits) {
			continue
		}
		rule := &Rule{Ref: dom.Ref(row), OpenRef: dom.Ref(row), Text: dom.Text(row)}
		if edit, _ := dom.FindClickableByText(row, editTexts); edit != nil && dom.Contains(row, edit) {
			rule.OpenRef = dom.Ref(edit)
		}
		return rule
	}
	return nil
}

func hasNestedHit(row *html.Node, hits []*html.Node) bool {
	for _, other := range hits {
		if other != row && dom.Contains(row, other) {
			return true
		}
	}
	return false
}
