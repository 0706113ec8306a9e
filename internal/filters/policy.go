// Package filters drives the mail client's filter settings screens.
package filters

import "time"

// Policy holds the waits used while the settings UI renders.
type Policy struct {
	PollInterval      time.Duration
	NavigationTimeout time.Duration
	NavigationSettle  time.Duration
	FormTimeout       time.Duration
	CriteriaSettle    time.Duration
	ActionsSettle     time.Duration
	ToggleSettle      time.Duration
	EditSettle        time.Duration
	UpdateSettle      time.Duration
	// FiltersLocation is the navigational location of the filter list.
	FiltersLocation string
}

// DefaultPolicy is tuned for Gmail on a typical connection.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:      100 * time.Millisecond,
		NavigationTimeout: 10 * time.Second,
		NavigationSettle:  time.Second,
		FormTimeout:       5 * time.Second,
		CriteriaSettle:    300 * time.Millisecond,
		ActionsSettle:     800 * time.Millisecond,
		ToggleSettle:      500 * time.Millisecond,
		EditSettle:        time.Second,
		UpdateSettle:      500 * time.Millisecond,
		FiltersLocation:   "#settings/filters",
	}
}

// Texts lists the wording variants of each affordance, in priority order.
type Texts struct {
	CreateFilter []string
	From         []string
	DoesntHave   []string
	// CriteriaLabels signal that the criteria form has rendered.
	CriteriaLabels []string
	Proceed        []string
	ApplyLabel     []string
	Edit           []string
	Cancel         []string
	Update         []string
	Continue       []string
	// RuleRowSelector matches one rendered rule in the filter list.
	RuleRowSelector string
}

// DefaultTexts matches Gmail's English UI.
func DefaultTexts() Texts {
	return Texts{
		CreateFilter:    []string{"Create a new filter", "Create new filter", "New filter"},
		From:            []string{"From"},
		DoesntHave:      []string{"Doesn't have", "Does not have"},
		CriteriaLabels:  []string{"From", "To", "Subject", "Has the words", "Doesn't have"},
		Proceed:         []string{"Create filter", "Continue", "Next"},
		ApplyLabel:      []string{"Apply the label", "Apply label"},
		Edit:            []string{"edit"},
		Cancel:          []string{"Cancel"},
		Update:          []string{"Update filter", "Update"},
		Continue:        []string{"Continue"},
		RuleRowSelector: "tr",
	}
}
