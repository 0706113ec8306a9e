package workflow

// State is a step of one run.
type State int

const (
	Idle State = iota
	ExtractingSender
	AwaitingLabelInput
	Navigating
	Matching
	Creating
	Updating
	Restoring
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExtractingSender:
		return "extracting_sender"
	case AwaitingLabelInput:
		return "awaiting_label_input"
	case Navigating:
		return "navigating"
	case Matching:
		return "matching"
	case Creating:
		return "creating"
	case Updating:
		return "updating"
	case Restoring:
		return "restoring"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is what a run did to the rule list.
type Action int

const (
	// None means nothing was touched.
	None Action = iota
	// Created means the creation wizard was prepared for the user to confirm.
	Created
	// Appended means the sender was added to an existing rule.
	Appended
	// Unchanged means the matching rule already listed the sender.
	Unchanged
)

func (a Action) String() string {
	switch a {
	case Created:
		return "created"
	case Appended:
		return "appended"
	case Unchanged:
		return "unchanged"
	default:
		return "none"
	}
}

// Result summarises a run. Err is set when State is Failed, and on a Done
// run that ended as a no-op (failure.ErrEmptyLabel).
type Result struct {
	RunID   string
	State   State
	Action  Action
	Sender  string
	Label   string
	Err     error
	Message string
}

// Transition is reported to Orchestrator.OnTransition on every state change.
type Transition struct {
	RunID string
	From  State
	To    State
}
