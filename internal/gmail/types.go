package gmail

type LabelID string
type FilterID string

// FilterCriteria mirrors the search predicates of a Gmail filter.
type FilterCriteria struct {
	From    string
	To      string
	Subject string
	Query   string
	// NegatedQuery is the "Doesn't have" field, where rule markers live.
	NegatedQuery string
}

type FilterAction struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
	Forward      string
}

// Filter is a rule as stored by Gmail.
type Filter struct {
	ID       FilterID
	Criteria FilterCriteria
	Action   FilterAction
}
