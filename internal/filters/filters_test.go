package filters

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host/gmailsim"
	"github.com/joshsymonds/autolabel/internal/host/htmlpage"
	"github.com/joshsymonds/autolabel/internal/poll"
)

func fastPolicy() Policy {
	return Policy{
		PollInterval:      2 * time.Millisecond,
		NavigationTimeout: 60 * time.Millisecond,
		NavigationSettle:  time.Millisecond,
		FormTimeout:       40 * time.Millisecond,
		CriteriaSettle:    time.Millisecond,
		ActionsSettle:     time.Millisecond,
		ToggleSettle:      time.Millisecond,
		EditSettle:        time.Millisecond,
		UpdateSettle:      time.Millisecond,
		FiltersLocation:   gmailsim.FiltersLocation,
	}
}

func newSim(t *testing.T, opts gmailsim.Options) *gmailsim.Sim {
	t.Helper()
	sim, err := gmailsim.New(opts)
	require.NoError(t, err)
	t.Cleanup(sim.Close)
	return sim
}

func openSettings(t *testing.T, sim *gmailsim.Sim) {
	t.Helper()
	require.NoError(t, sim.Page.SetLocation(context.Background(), gmailsim.FiltersLocation))
}

func countEvents(p *htmlpage.Page, kind htmlpage.EventKind) int {
	n := 0
	for _, e := range p.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestMarkerFoundIn(t *testing.T) {
	m := NewMarker("autolabel_", "  News ")
	assert.Equal(t, "autolabel_News", m.String())

	tests := []struct {
		text string
		want bool
	}{
		{text: "autolabel_News", want: true},
		{text: "Matches: from:(a@b.co) -autolabel_News Do this: label", want: true},
		{text: "Matches: -{autolabel_News}", want: true},
		{text: "-autolabel_Newsletter", want: false},
		{text: "-autolabel_News/Tech", want: false},
		{text: "xautolabel_News", want: false},
		{text: "-autolabel_Newsletter -autolabel_News", want: true},
		{text: "nothing here", want: false},
		{text: "-" + NewMarker("autolabel_", "News Letter").String(), want: false},
		{text: "-{" + NewMarker("autolabel_", "News  Letter").String() + "}", want: false},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, m.FoundIn(tc.text))
		})
	}
	assert.Equal(t, Marker(DefaultMarkerPrefix+"X"), NewMarker("", "X"))
	assert.Equal(t, Marker("autolabel_News_Letter"), NewMarker("autolabel_", " News \t Letter "))
}

func TestMatchRows(t *testing.T) {
	doc := func(rows string) *html.Node {
		root, err := html.Parse(strings.NewReader(`<table><tbody>` + rows + `</tbody></table>`))
		require.NoError(t, err)
		return root
	}
	rows, err := cascadia.Parse("tr")
	require.NoError(t, err)
	marker := NewMarker("autolabel_", "Newsletter")
	edit := DefaultTexts().Edit

	t.Run("no marker anywhere", func(t *testing.T) {
		root := doc(`<tr><td>from:(a@b.co) -autolabel_Receipts</td></tr><tr><td>Newsletter stuff</td></tr>`)
		assert.Nil(t, MatchRows(root, rows, marker, edit))
	})

	t.Run("exactly one among unrelated", func(t *testing.T) {
		root := doc(`<tr id="r1" data-autolabel-ref="1"><td>from:(a@b.co) Newsletter</td></tr>` +
			`<tr id="r2" data-autolabel-ref="2"><td>from:(c@d.co) -autolabel_Newsletter</td>` +
			`<td><span role="link" data-autolabel-ref="3">edit</span></td></tr>` +
			`<tr data-autolabel-ref="4"><td>-autolabel_Newsletters</td></tr>`)
		rule := MatchRows(root, rows, marker, edit)
		require.NotNil(t, rule)
		assert.Equal(t, "2", rule.Ref)
		assert.Equal(t, "3", rule.OpenRef)
	})

	t.Run("innermost nested row", func(t *testing.T) {
		root := doc(`<tr data-autolabel-ref="1"><td><table><tbody>` +
			`<tr data-autolabel-ref="2"><td>-autolabel_Newsletter</td></tr>` +
			`</tbody></table></td></tr>`)
		rule := MatchRows(root, rows, marker, edit)
		require.NotNil(t, rule)
		assert.Equal(t, "2", rule.Ref)
		assert.Equal(t, "2", rule.OpenRef)
	})
}

func TestMatcherFindByLabel(t *testing.T) {
	sim := newSim(t, gmailsim.Options{Filters: []gmailsim.Filter{
		{From: "a@example.com", DoesntHave: "autolabel_Receipts", Label: "Receipts"},
		{From: "old@example.com", DoesntHave: "autolabel_Newsletter", Label: "Newsletter"},
	}})
	openSettings(t, sim)
	m, err := NewMatcher(sim.Page, DefaultTexts(), "autolabel_", zaptest.NewLogger(t))
	require.NoError(t, err)

	rule, err := m.FindByLabel(context.Background(), "Newsletter")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Contains(t, rule.Text, "old@example.com")
	assert.NotEqual(t, rule.Ref, rule.OpenRef)

	rule, err = m.FindByLabel(context.Background(), "Travel")
	require.NoError(t, err)
	assert.Nil(t, rule)
	assert.Equal(t, 0, sim.Page.Mutations())
}

func TestNewMatcherRejectsBadSelector(t *testing.T) {
	texts := DefaultTexts()
	texts.RuleRowSelector = "tr[["
	_, err := NewMatcher(nil, texts, "", nil)
	assert.Error(t, err)
}

func TestNavigator(t *testing.T) {
	t.Run("waits for delayed render", func(t *testing.T) {
		sim := newSim(t, gmailsim.Options{SettingsDelay: 15 * time.Millisecond})
		n := NewNavigator(sim.Page, fastPolicy(), DefaultTexts(), zaptest.NewLogger(t))
		res, err := n.GotoFilterSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, poll.Satisfied, res)
	})

	t.Run("timeout is not fatal", func(t *testing.T) {
		sim := newSim(t, gmailsim.Options{NoSettings: true})
		n := NewNavigator(sim.Page, fastPolicy(), DefaultTexts(), zaptest.NewLogger(t))
		res, err := n.GotoFilterSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, poll.TimedOut, res)
	})

	t.Run("restore", func(t *testing.T) {
		sim := newSim(t, gmailsim.Options{})
		n := NewNavigator(sim.Page, fastPolicy(), DefaultTexts(), nil)
		openSettings(t, sim)
		require.NoError(t, n.Restore(context.Background(), gmailsim.InboxLocation))
		loc, err := sim.Page.Location(context.Background())
		require.NoError(t, err)
		assert.Equal(t, gmailsim.InboxLocation, loc)

		before := countEvents(sim.Page, htmlpage.EventNavigate)
		require.NoError(t, n.Restore(context.Background(), gmailsim.InboxLocation))
		assert.Equal(t, before, countEvents(sim.Page, htmlpage.EventNavigate), "no navigation when already there")
	})
}

func TestCreatorCreate(t *testing.T) {
	sim := newSim(t, gmailsim.Options{FormDelay: 10 * time.Millisecond})
	openSettings(t, sim)
	c := NewCreator(sim.Page, fastPolicy(), DefaultTexts(), "autolabel_", zaptest.NewLogger(t))

	require.NoError(t, c.Create(context.Background(), "jane@example.com", "Newsletter"))

	assert.Equal(t, gmailsim.Filter{From: "jane@example.com", DoesntHave: "autolabel_Newsletter"}, sim.Pending())
	assert.True(t, sim.ApplyLabelChecked())
	assert.Empty(t, sim.Filters(), "final confirmation is left to the user")
}

func TestCreatorFailures(t *testing.T) {
	tests := []struct {
		name      string
		opts      gmailsim.Options
		want      error
		setValues int
	}{
		{name: "no create affordance", opts: gmailsim.Options{NoCreateLink: true}, want: failure.ErrElementNotFound},
		{name: "form never renders", opts: gmailsim.Options{NoForm: true}, want: failure.ErrFormNotReady},
		{name: "no from input", opts: gmailsim.Options{NoFromField: true}, want: failure.ErrElementNotFound},
		{name: "no proceed affordance", opts: gmailsim.Options{NoProceed: true}, want: failure.ErrElementNotFound, setValues: 2},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			sim := newSim(t, tc.opts)
			openSettings(t, sim)
			c := NewCreator(sim.Page, fastPolicy(), DefaultTexts(), "autolabel_", zaptest.NewLogger(t))
			err := c.Create(context.Background(), "jane@example.com", "Newsletter")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.setValues, countEvents(sim.Page, htmlpage.EventSetValue))
			assert.Equal(t, gmailsim.Filter{}, sim.Pending(), "wizard must not reach the actions step")
		})
	}
}

func TestCreatorLeavesCheckedToggleAlone(t *testing.T) {
	sim := newSim(t, gmailsim.Options{ApplyLabelPreset: true})
	openSettings(t, sim)
	c := NewCreator(sim.Page, fastPolicy(), DefaultTexts(), "autolabel_", zaptest.NewLogger(t))

	require.NoError(t, c.Create(context.Background(), "jane@example.com", "Newsletter"))

	assert.True(t, sim.ApplyLabelChecked())
	// create link and proceed only; clicking the toggle would switch it off
	assert.Equal(t, 2, countEvents(sim.Page, htmlpage.EventClick))
}

func TestCreatorWithoutExclusionField(t *testing.T) {
	sim := newSim(t, gmailsim.Options{NoDoesntHave: true})
	openSettings(t, sim)
	c := NewCreator(sim.Page, fastPolicy(), DefaultTexts(), "autolabel_", zaptest.NewLogger(t))

	require.NoError(t, c.Create(context.Background(), "jane@example.com", "Newsletter"))
	assert.Equal(t, gmailsim.Filter{From: "jane@example.com"}, sim.Pending())
	assert.True(t, sim.ApplyLabelChecked())
}

func updateOnce(t *testing.T, sim *gmailsim.Sim, sender string) Change {
	t.Helper()
	ctx := context.Background()
	openSettings(t, sim)
	m, err := NewMatcher(sim.Page, DefaultTexts(), "autolabel_", zaptest.NewLogger(t))
	require.NoError(t, err)
	rule, err := m.FindByLabel(ctx, "Newsletter")
	require.NoError(t, err)
	require.NotNil(t, rule)

	u := NewUpdater(sim.Page, fastPolicy(), DefaultTexts(), zaptest.NewLogger(t))
	change, err := u.Update(ctx, rule, sender)
	require.NoError(t, err)
	return change
}

func TestUpdaterIsIdempotent(t *testing.T) {
	sim := newSim(t, gmailsim.Options{Filters: []gmailsim.Filter{
		{From: "old@example.com", DoesntHave: "autolabel_Newsletter", Label: "Newsletter"},
	}})

	assert.Equal(t, Appended, updateOnce(t, sim, "jane@example.com"))
	assert.Equal(t, "old@example.com | jane@example.com", sim.Filters()[0].From)
	assert.Equal(t, 1, sim.Updates())

	assert.Equal(t, AlreadyPresent, updateOnce(t, sim, "jane@example.com"))
	assert.Equal(t, "old@example.com | jane@example.com", sim.Filters()[0].From)
	assert.Equal(t, 1, sim.Updates(), "second run must not write")
	assert.Equal(t, 1, sim.Cancels())
	assert.Equal(t, 1, countEvents(sim.Page, htmlpage.EventSetValue))
}

func TestUpdaterTwoStepEdit(t *testing.T) {
	sim := newSim(t, gmailsim.Options{TwoStepEdit: true, Filters: []gmailsim.Filter{
		{From: "old@example.com", DoesntHave: "autolabel_Newsletter", Label: "Newsletter"},
	}})

	assert.Equal(t, Appended, updateOnce(t, sim, "jane@example.com"))
	assert.Equal(t, "old@example.com | jane@example.com", sim.Filters()[0].From)
	assert.Equal(t, 1, sim.Updates())
}

func TestUpdaterStaleRule(t *testing.T) {
	sim := newSim(t, gmailsim.Options{})
	u := NewUpdater(sim.Page, fastPolicy(), DefaultTexts(), nil)

	_, err := u.Update(context.Background(), &Rule{Ref: "9999", OpenRef: "9999"}, "jane@example.com")
	assert.ErrorIs(t, err, failure.ErrElementNotFound)

	_, err = u.Update(context.Background(), nil, "jane@example.com")
	assert.ErrorIs(t, err, failure.ErrElementNotFound)
}

func TestUpdaterMatchesWholeAddresses(t *testing.T) {
	sim := newSim(t, gmailsim.Options{Filters: []gmailsim.Filter{
		{From: "mary-jane@example.com", DoesntHave: "autolabel_Newsletter", Label: "Newsletter"},
	}})

	assert.Equal(t, Appended, updateOnce(t, sim, "jane@example.com"))
	assert.Equal(t, "mary-jane@example.com | jane@example.com", sim.Filters()[0].From)
	assert.Equal(t, 1, sim.Updates())

	assert.Equal(t, AlreadyPresent, updateOnce(t, sim, "Jane@Example.com"))
	assert.Equal(t, 1, sim.Updates())
}

func TestHasSender(t *testing.T) {
	tests := []struct {
		from string
		addr string
		want bool
	}{
		{from: "jane@example.com", addr: "jane@example.com", want: true},
		{from: "mary-jane@example.com", addr: "jane@example.com", want: false},
		{from: "jane@example.com.au", addr: "jane@example.com", want: false},
		{from: "old@example.com | jane@example.com", addr: "jane@example.com", want: true},
		{from: "(old@example.com OR JANE@example.com)", addr: "jane@example.com", want: true},
		{from: "{old@example.com jane@example.com}", addr: "jane@example.com", want: true},
		{from: "Jane Doe <jane@example.com>", addr: "jane@example.com", want: true},
		{from: "jane@example.com", addr: "  ", want: false},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.from+"/"+tc.addr, func(t *testing.T) {
			assert.Equal(t, tc.want, HasSender(tc.from, tc.addr))
		})
	}
}

func TestSenders(t *testing.T) {
	tests := []struct {
		from string
		want []string
	}{
		{from: "a@x.com", want: []string{"a@x.com"}},
		{from: "a@x.com | b@y.com", want: []string{"a@x.com", "b@y.com"}},
		{from: "{a@x.com b@y.com}", want: []string{"a@x.com", "b@y.com"}},
		{from: "(a@x.com OR b@y.com)", want: []string{"a@x.com", "b@y.com"}},
		{from: "", want: nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Senders(tt.from), tt.from)
	}
}
