// Package gmailsim is a scripted stand-in for Gmail's message view and
// filter settings screens, built on htmlpage. It renders the same shapes
// the heuristics target (sender header, filter rows, criteria form, action
// step) and records what was clicked and saved.
package gmailsim

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	nethtml "golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/host/htmlpage"
)

const (
	InboxLocation   = "#inbox/FMfcgz"
	FiltersLocation = "#settings/filters"
)

// Filter is a rule as stored by the simulated account.
type Filter struct {
	From       string
	DoesntHave string
	Label      string
}

// Options shapes the simulated UI.
type Options struct {
	// MessageHTML replaces the default message header.
	MessageHTML string
	Filters     []Filter
	// SettingsDelay postpones rendering the filter list after navigation.
	SettingsDelay time.Duration
	// FormDelay postpones rendering the criteria form.
	FormDelay time.Duration
	// NoSettings never renders the filter list.
	NoSettings bool
	// NoCreateLink omits the create-filter affordance.
	NoCreateLink bool
	// NoForm never renders the criteria form.
	NoForm bool
	// NoDoesntHave omits the exclusion field from the criteria form.
	NoDoesntHave bool
	// NoFromField omits the From field from the criteria form.
	NoFromField bool
	// NoProceed omits the button that advances to the actions step.
	NoProceed bool
	// ApplyLabelPreset renders the apply-label toggle already checked.
	ApplyLabelPreset bool
	// TwoStepEdit shows Continue before Update filter when editing.
	TwoStepEdit bool
	// PanicOnCreate makes the create-filter affordance blow up.
	PanicOnCreate bool
}

// DefaultMessage is a Gmail-like header for jane@example.com.
const DefaultMessage = `<h3 class="iw"><span class="gD" email="jane@example.com" name="Jane Doe">Jane Doe</span></h3>
<div class="a3s"><p id="origin">Our spring newsletter is here.</p></div>`

// Sim couples an htmlpage.Page with the account state behind it.
type Sim struct {
	Page *htmlpage.Page
	opts Options

	filters []Filter
	pending Filter
	editing int
	updates int
	cancels int
}

// New builds the simulated inbox with a message open.
func New(opts Options) (*Sim, error) {
	msg := opts.MessageHTML
	if msg == "" {
		msg = DefaultMessage
	}
	markup := `<html><body><div role="main" id="inbox"><div class="adn" id="message">` + msg +
		`</div></div><div id="settings"></div><div id="dialog"></div></body></html>`
	page, err := htmlpage.New(markup, InboxLocation)
	if err != nil {
		return nil, fmt.Errorf("build inbox: %w", err)
	}
	s := &Sim{Page: page, opts: opts, filters: append([]Filter(nil), opts.Filters...), editing: -1}
	page.OnNavigate(s.navigate)

	reactions := []struct {
		sel string
		fn  htmlpage.ClickFunc
	}{
		{`[data-sim="create"]`, s.openCreate},
		{`[data-sim="proceed"]`, s.proceed},
		{`[data-sim="create-final"]`, s.createFinal},
		{`[data-sim="edit"]`, s.openEdit},
		{`[data-sim="edit-continue"]`, s.editContinue},
		{`[data-sim="update"]`, s.update},
		{`[data-sim="cancel"]`, s.cancel},
	}
	for _, r := range reactions {
		if err := page.OnClick(r.sel, r.fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close stops delayed renders.
func (s *Sim) Close() { s.Page.Close() }

// Filters returns the saved rules.
func (s *Sim) Filters() []Filter {
	var out []Filter
	s.Page.Do(func(*htmlpage.Doc) { out = append([]Filter(nil), s.filters...) })
	return out
}

// Updates counts clicks on the update affordance.
func (s *Sim) Updates() int {
	var n int
	s.Page.Do(func(*htmlpage.Doc) { n = s.updates })
	return n
}

// Cancels counts clicks on cancel.
func (s *Sim) Cancels() int {
	var n int
	s.Page.Do(func(*htmlpage.Doc) { n = s.cancels })
	return n
}

// Pending returns the criteria captured when the wizard advanced to actions.
func (s *Sim) Pending() Filter {
	var f Filter
	s.Page.Do(func(*htmlpage.Doc) { f = s.pending })
	return f
}

// ApplyLabelChecked reports whether the wizard's apply-label toggle is on.
func (s *Sim) ApplyLabelChecked() bool {
	var on bool
	s.Page.Do(func(d *htmlpage.Doc) { on = dom.IsChecked(d.Find("#a-label")) })
	return on
}

// navigate re-renders the settings view. The dialog survives navigation
// like Gmail's search-options panel does.
func (s *Sim) navigate(d *htmlpage.Doc, location string) {
	if location != FiltersLocation {
		_ = d.SetHTML("#settings", "")
		return
	}
	if s.opts.NoSettings {
		return
	}
	d.After(s.opts.SettingsDelay, s.renderList)
}

func (s *Sim) renderList(d *htmlpage.Doc) {
	var b strings.Builder
	b.WriteString(`<div class="filters">`)
	if !s.opts.NoCreateLink {
		b.WriteString(`<div class="create"><span role="link" data-sim="create">Create a new filter</span></div>`)
	}
	b.WriteString(`<table><tbody>`)
	for i, f := range s.filters {
		matches := "from:(" + f.From + ")"
		if f.DoesntHave != "" {
			matches += " -" + f.DoesntHave
		}
		fmt.Fprintf(&b, `<tr data-sim-index="%d"><td>Matches: %s</td><td>Do this: Apply label "%s"</td>`+
			`<td><span role="link" data-sim="edit">edit</span> <span role="link">delete</span></td></tr>`,
			i, html.EscapeString(matches), html.EscapeString(f.Label))
	}
	b.WriteString(`</tbody></table></div>`)
	_ = d.SetHTML("#settings", b.String())
}

func criteriaForm(from, doesntHave string, withFrom, withDoesntHave bool, buttons string) string {
	field := func(id, label, value string) string {
		return fmt.Sprintf(`<div class="row"><label for="%s">%s</label><input id="%s" value="%s"></div>`,
			id, label, id, html.EscapeString(value))
	}
	var b strings.Builder
	b.WriteString(`<div role="dialog" class="criteria">`)
	if withFrom {
		b.WriteString(field("f-from", "From", from))
	}
	b.WriteString(field("f-to", "To", ""))
	b.WriteString(field("f-subject", "Subject", ""))
	b.WriteString(field("f-has", "Has the words", ""))
	if withDoesntHave {
		b.WriteString(field("f-not", "Doesn't have", doesntHave))
	}
	b.WriteString(buttons)
	b.WriteString(`</div>`)
	return b.String()
}

func (s *Sim) openCreate(d *htmlpage.Doc, _ *nethtml.Node) {
	if s.opts.PanicOnCreate {
		panic("simulated script error")
	}
	if s.opts.NoForm {
		return
	}
	buttons := `<div role="button" data-sim="proceed">Create filter</div>`
	if s.opts.NoProceed {
		buttons = ""
	}
	d.After(s.opts.FormDelay, func(d *htmlpage.Doc) {
		_ = d.SetHTML("#dialog", criteriaForm("", "", !s.opts.NoFromField, !s.opts.NoDoesntHave, buttons))
	})
}

func (s *Sim) proceed(d *htmlpage.Doc, _ *nethtml.Node) {
	s.pending = Filter{From: d.Value("#f-from"), DoesntHave: d.Value("#f-not")}
	checked := ""
	if s.opts.ApplyLabelPreset {
		checked = " checked"
	}
	_ = d.SetHTML("#dialog", `<div role="dialog" class="actions">`+
		`<div class="row"><input type="checkbox" id="a-label"`+checked+`><label for="a-label">Apply the label:</label>`+
		`<select id="a-label-choice"><option value="">Choose label...</option></select></div>`+
		`<div role="button" data-sim="create-final">Create filter</div></div>`)
}

func (s *Sim) createFinal(d *htmlpage.Doc, _ *nethtml.Node) {
	f := s.pending
	f.Label = d.Value("#a-label-choice")
	s.filters = append(s.filters, f)
	s.pending = Filter{}
	_ = d.SetHTML("#dialog", "")
	s.renderList(d)
}

func (s *Sim) openEdit(d *htmlpage.Doc, target *nethtml.Node) {
	row := target
	for row != nil && !dom.IsElement(row, "tr") {
		row = row.Parent
	}
	idx, err := strconv.Atoi(attr(row, "data-sim-index"))
	if err != nil || idx < 0 || idx >= len(s.filters) {
		return
	}
	s.editing = idx
	f := s.filters[idx]
	buttons := `<div role="button" data-sim="cancel">Cancel</div><div role="button" data-sim="update">Update filter</div>`
	if s.opts.TwoStepEdit {
		buttons = `<div role="button" data-sim="cancel">Cancel</div><div role="button" data-sim="edit-continue">Continue</div>`
	}
	_ = d.SetHTML("#dialog", criteriaForm(f.From, f.DoesntHave, true, true, buttons))
}

func (s *Sim) editContinue(d *htmlpage.Doc, _ *nethtml.Node) {
	s.pending = Filter{From: d.Value("#f-from"), DoesntHave: d.Value("#f-not")}
	_ = d.SetHTML("#dialog", `<div role="dialog" class="actions">`+
		`<div class="row"><input type="checkbox" id="a-label" checked><label for="a-label">Apply the label:</label></div>`+
		`<div role="button" data-sim="update">Update filter</div></div>`)
}

func (s *Sim) update(d *htmlpage.Doc, _ *nethtml.Node) {
	s.updates++
	if s.editing < 0 {
		return
	}
	from := d.Value("#f-from")
	if from == "" {
		from = s.pending.From
	}
	s.filters[s.editing].From = from
	s.editing = -1
	s.pending = Filter{}
	_ = d.SetHTML("#dialog", "")
	s.renderList(d)
}

func (s *Sim) cancel(d *htmlpage.Doc, _ *nethtml.Node) {
	s.cancels++
	s.editing = -1
	_ = d.SetHTML("#dialog", "")
}

func attr(n *nethtml.Node, key string) string {
	v, _ := dom.Attr(n, key)
	return v
}
