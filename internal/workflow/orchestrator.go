// Package workflow sequences extraction, navigation, matching and the
// create-or-update step into one user-triggered run.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/filters"
	"github.com/joshsymonds/autolabel/internal/host"
	"github.com/joshsymonds/autolabel/internal/sender"
)

// Settings configures the components an Orchestrator builds.
type Settings struct {
	Policy       filters.Policy
	Texts        filters.Texts
	Extract      sender.Options
	MarkerPrefix string
}

// DefaultSettings tunes every component for Gmail.
func DefaultSettings() Settings {
	return Settings{
		Policy:       filters.DefaultPolicy(),
		Texts:        filters.DefaultTexts(),
		Extract:      sender.DefaultOptions(),
		MarkerPrefix: filters.DefaultMarkerPrefix,
	}
}

// Orchestrator owns no state between runs; every field is a collaborator.
type Orchestrator struct {
	Page      host.Page
	Notifier  host.Notifier
	Extractor *sender.Extractor
	Navigator *filters.Navigator
	Matcher   *filters.Matcher
	Creator   *filters.Creator
	Updater   *filters.Updater
	Logger    *zap.Logger

	// OnTransition, when set, observes every state change.
	OnTransition func(Transition)
	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
}

// New wires the default component chain against page.
func New(page host.Page, notifier host.Notifier, settings Settings, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	extractor, err := sender.NewExtractor(settings.Extract, logger.Named("sender"))
	if err != nil {
		return nil, fmt.Errorf("build sender extractor: %w", err)
	}
	matcher, err := filters.NewMatcher(page, settings.Texts, settings.MarkerPrefix, logger.Named("matcher"))
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}
	return &Orchestrator{
		Page:      page,
		Notifier:  notifier,
		Extractor: extractor,
		Navigator: filters.NewNavigator(page, settings.Policy, settings.Texts, logger.Named("navigator")),
		Matcher:   matcher,
		Creator:   filters.NewCreator(page, settings.Policy, settings.Texts, settings.MarkerPrefix, logger.Named("creator")),
		Updater:   filters.NewUpdater(page, settings.Policy, settings.Texts, logger.Named("updater")),
		Logger:    logger,
		NewRunID:  uuid.NewString,
	}, nil
}

type run struct {
	o      *Orchestrator
	id     string
	state  State
	logger *zap.Logger
}

func (r *run) to(next State) {
	prev := r.state
	r.state = next
	r.logger.Info("state transition", zap.Stringer("from", prev), zap.Stringer("to", next))
	if r.o.OnTransition != nil {
		r.o.OnTransition(Transition{RunID: r.id, From: prev, To: next})
	}
}

// Run executes one trigger-to-completion cycle for the element identified
// by originRef in a fresh snapshot. Every outcome is reported through the
// Notifier; panics are recovered and reported as host failures, and the
// page location recorded before navigation is restored on every exit path.
func (o *Orchestrator) Run(ctx context.Context, originRef string) (res Result) {
	newID := o.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &run{o: o, id: newID(), state: Idle}
	r.logger = logger.With(zap.String("run_id", r.id))

	defer func() {
		if p := recover(); p != nil {
			err := failure.New(failure.HostOperationFailed, "run", "panic: %v", p)
			r.logger.Error("run panicked", zap.Any("panic", p))
			o.fail(ctx, r, &res, err)
		}
	}()

	res = Result{RunID: r.id}
	o.execute(ctx, r, &res, originRef)
	return res
}

func (o *Orchestrator) execute(ctx context.Context, r *run, res *Result, originRef string) {
	r.to(ExtractingSender)
	root, err := o.Page.Snapshot(ctx)
	if err != nil {
		o.fail(ctx, r, res, failure.Wrap(failure.HostOperationFailed, "snapshot page", err))
		return
	}
	origin := dom.ByRef(root, originRef)
	if origin == nil {
		o.fail(ctx, r, res, failure.New(failure.NoSenderDetected, "locate origin", "clicked element is no longer rendered"))
		return
	}
	addr, ok := o.Extractor.Extract(origin)
	if !ok {
		o.fail(ctx, r, res, failure.New(failure.NoSenderDetected, "extract sender",
			"no address near the clicked element; try clicking on the sender's name"))
		return
	}
	res.Sender = addr
	r.logger.Info("sender detected", zap.String("sender", addr))

	r.to(AwaitingLabelInput)
	answer, err := o.Notifier.Prompt(ctx, fmt.Sprintf("Label for mail from %s:", addr))
	if err != nil {
		o.fail(ctx, r, res, failure.Wrap(failure.HostOperationFailed, "prompt for label", err))
		return
	}
	label := strings.TrimSpace(answer)
	if label == "" {
		r.to(Done)
		r.logger.Info("no label given; nothing to do")
		res.State = Done
		res.Err = failure.ErrEmptyLabel
		return
	}
	res.Label = label

	loc, err := o.Page.Location(ctx)
	if err != nil {
		o.fail(ctx, r, res, failure.Wrap(failure.HostOperationFailed, "read location", err))
		return
	}
	action, err := o.apply(ctx, r, loc, addr, label)
	res.Action = action
	if err != nil {
		o.fail(ctx, r, res, err)
		return
	}

	r.to(Done)
	res.State = Done
	res.Message = doneMessage(action, addr, label)
	o.notify(ctx, r, res.Message)
}

// apply runs the navigate-mutate sequence; the deferred restore covers
// returns and panics alike.
func (o *Orchestrator) apply(ctx context.Context, r *run, loc, addr, label string) (Action, error) {
	defer o.restore(ctx, r, loc)

	r.to(Navigating)
	if _, err := o.Navigator.GotoFilterSettings(ctx); err != nil {
		return None, err
	}

	r.to(Matching)
	rule, err := o.Matcher.FindByLabel(ctx, label)
	if err != nil {
		return None, err
	}

	if rule == nil {
		r.to(Creating)
		if err := o.Creator.Create(ctx, addr, label); err != nil {
			return None, err
		}
		return Created, nil
	}

	r.to(Updating)
	change, err := o.Updater.Update(ctx, rule, addr)
	if err != nil {
		return None, err
	}
	if change == filters.AlreadyPresent {
		return Unchanged, nil
	}
	return Appended, nil
}

func (o *Orchestrator) restore(ctx context.Context, r *run, loc string) {
	r.to(Restoring)
	if err := o.Navigator.Restore(context.WithoutCancel(ctx), loc); err != nil {
		r.logger.Warn("view not restored", zap.String("location", loc), zap.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, r *run, res *Result, err error) {
	r.to(Failed)
	r.logger.Error("run failed", zap.Stringer("reason", failure.KindOf(err)), zap.Error(err))
	res.State = Failed
	res.Err = err
	res.Message = failMessage(err)
	o.notify(ctx, r, res.Message)
}

func (o *Orchestrator) notify(ctx context.Context, r *run, msg string) {
	if o.Notifier == nil {
		return
	}
	if err := o.Notifier.Alert(context.WithoutCancel(ctx), msg); err != nil {
		r.logger.Warn("alert not shown", zap.Error(err))
	}
}

func doneMessage(action Action, addr, label string) string {
	switch action {
	case Created:
		return fmt.Sprintf("New filter for %s is ready. Choose the label %q in the filter dialog and click \"Create filter\" to finish.", addr, label)
	case Unchanged:
		return fmt.Sprintf("%s is already in the filter for %q.", addr, label)
	default:
		return fmt.Sprintf("Added %s to the filter for %q.", addr, label)
	}
}

func failMessage(err error) string {
	switch failure.KindOf(err) {
	case failure.NoSenderDetected:
		return "Could not find the sender's address. Right-click directly on the sender's name and try again."
	case failure.FormNotReady:
		return "The filter form did not open in time. Please try again."
	case failure.ElementNotFound:
		return fmt.Sprintf("Could not find part of the filter settings page: %v", err)
	default:
		return fmt.Sprintf("Auto-label failed: %v", err)
	}
}
