package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return root
}

func TestText(t *testing.T) {
	root := parse(t, `<div id="x">  Jane
		<b>Doe</b><script>ignored()</script> &lt;jane@example.com&gt; </div>`)
	assert.Equal(t, "Jane Doe <jane@example.com>", Text(ByID(root, "x")))
}

func TestFindClickableByText(t *testing.T) {
	root := parse(t, `
		<div role="button" id="create"><span class="label">Create a new filter</span></div>
		<div role="button" id="new">New filter</div>
		<input type="submit" id="submit" value="Create filter">
		<div id="hidden" role="button" data-autolabel-hidden="">Continue</div>`)

	tests := []struct {
		name        string
		variants    []string
		wantID      string
		wantVariant string
	}{
		{name: "first variant wins", variants: []string{"Create a new filter", "New filter"}, wantID: "create", wantVariant: "Create a new filter"},
		{name: "falls through to later variant", variants: []string{"Make filter", "new FILTER"}, wantID: "new", wantVariant: "new FILTER"},
		{name: "submit input by value", variants: []string{"Create filter"}, wantID: "submit", wantVariant: "Create filter"},
		{name: "hidden element skipped", variants: []string{"Continue"}},
		{name: "nothing rendered", variants: []string{"Update filter"}},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			n, variant := FindClickableByText(root, tc.variants)
			if tc.wantID == "" {
				assert.Nil(t, n)
				assert.Empty(t, variant)
				return
			}
			require.NotNil(t, n)
			id, _ := Attr(n, "id")
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantVariant, variant)
		})
	}
}

func TestFindInputByLabel(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		labels []string
		wantID string
	}{
		{
			name:   "label for",
			markup: `<label for="f">From</label><input id="other"><input id="f">`,
			labels: []string{"From"},
			wantID: "f",
		},
		{
			name:   "wrapping label",
			markup: `<label>From: <input id="f"></label>`,
			labels: []string{"From"},
			wantID: "f",
		},
		{
			name:   "aria label",
			markup: `<input id="search" aria-label="Search mail"><input id="f" aria-label="From">`,
			labels: []string{"From"},
			wantID: "f",
		},
		{
			name:   "aria labelledby",
			markup: `<span id="l1">Doesn't</span><span id="l2">have</span><input id="x" aria-labelledby="l1 l2">`,
			labels: []string{"Doesn’t have"},
			wantID: "x",
		},
		{
			name:   "sibling table cell",
			markup: `<table><tr><td><input id="before"></td><td><label>Has the words</label></td><td><div><input id="hw"></div></td></tr></table>`,
			labels: []string{"Has the words"},
			wantID: "hw",
		},
		{
			name:   "second variant",
			markup: `<label for="dh">Does not have</label><input id="dh">`,
			labels: []string{"Doesn't have", "Does not have"},
			wantID: "dh",
		},
		{
			name:   "absent",
			markup: `<label>Subject</label><span>no input</span>`,
			labels: []string{"From"},
		},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			root := parse(t, tc.markup)
			n := FindInputByLabel(root, tc.labels)
			if tc.wantID == "" {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			id, _ := Attr(n, "id")
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestSelectIncludesRoot(t *testing.T) {
	root := parse(t, `<span class="gD" id="outer"><span class="gD" id="inner">x</span></span>`)
	outer := ByID(root, "outer")

	got, err := SelectString(outer, ".gD")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Same(t, outer, got[0])

	_, err = SelectString(outer, "[[")
	assert.Error(t, err)
}

func TestValueAndChecked(t *testing.T) {
	root := parse(t, `<input id="a" value="old@example.com"><textarea id="b">notes</textarea>
		<input id="c" type="checkbox" checked><div id="d" role="checkbox" aria-checked="false"></div>`)

	assert.Equal(t, "old@example.com", Value(ByID(root, "a")))
	assert.Equal(t, "notes", Value(ByID(root, "b")))
	assert.True(t, IsChecked(ByID(root, "c")))
	assert.False(t, IsChecked(ByID(root, "d")))
}

func TestByRef(t *testing.T) {
	root := parse(t, `<div data-autolabel-ref="1"><p data-autolabel-ref="2">x</p></div>`)
	n := ByRef(root, "2")
	require.NotNil(t, n)
	assert.Equal(t, "p", n.Data)
	assert.Nil(t, ByRef(root, "9"))
	assert.Nil(t, ByRef(root, ""))
}
