package filters

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host"
	"github.com/joshsymonds/autolabel/internal/poll"
)

// SenderSeparator joins addresses in a rule's From criterion.
const SenderSeparator = " | "

// Change reports what Update did to the rule.
type Change int

const (
	Appended Change = iota
	AlreadyPresent
)

func (c Change) String() string {
	if c == AlreadyPresent {
		return "already present"
	}
	return "appended"
}

// Updater adds a sender to an existing rule.
type Updater struct {
	Page   host.Page
	Policy Policy
	Texts  Texts
	Logger *zap.Logger
}

// NewUpdater constructs an Updater; a nil logger discards output.
func NewUpdater(page host.Page, policy Policy, texts Texts, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{Page: page, Policy: policy, Texts: texts, Logger: logger}
}

// Update opens rule and appends sender to its From criterion. When sender
// is already listed nothing is written and the edit view is cancelled.
func (u *Updater) Update(ctx context.Context, rule *Rule, sender string) (Change, error) {
	if rule == nil {
		return Appended, failure.New(failure.ElementNotFound, "open rule", "no rule to update")
	}
	d := driver{page: u.Page, logger: u.Logger}

	root, err := d.snapshot(ctx, "snapshot filter list")
	if err != nil {
		return Appended, err
	}
	open := dom.ByRef(root, rule.OpenRef)
	if open == nil {
		return Appended, failure.New(failure.ElementNotFound, "open rule", "rule row is no longer rendered")
	}
	if err := d.click(ctx, open, "open rule"); err != nil {
		return Appended, err
	}
	if err := poll.Sleep(ctx, u.Policy.EditSettle); err != nil {
		return Appended, failure.Wrap(failure.HostOperationFailed, "settle edit view", err)
	}

	root, err = d.snapshot(ctx, "snapshot edit view")
	if err != nil {
		return Appended, err
	}
	from, err := d.findInput(root, u.Texts.From, "locate from input")
	if err != nil {
		return Appended, err
	}
	current := dom.Value(from)
	if HasSender(current, sender) {
		u.cancel(ctx, d)
		u.Logger.Info("sender already in rule", zap.String("sender", sender))
		return AlreadyPresent, nil
	}

	next := sender
	if strings.TrimSpace(current) != "" {
		next = current + SenderSeparator + sender
	}
	if err := d.setValue(ctx, from, next, "fill from input"); err != nil {
		return Appended, err
	}
	if err := poll.Sleep(ctx, u.Policy.UpdateSettle); err != nil {
		return Appended, failure.Wrap(failure.HostOperationFailed, "settle criteria", err)
	}

	if err := u.confirm(ctx, d); err != nil {
		return Appended, err
	}
	u.Logger.Info("sender appended to rule", zap.String("sender", sender), zap.String("from", next))
	return Appended, nil
}

// confirm invokes the update affordance. Gmail's edit flow sometimes shows
// "Continue" first and the update button on the following step.
func (u *Updater) confirm(ctx context.Context, d driver) error {
	root, err := d.snapshot(ctx, "snapshot edit view")
	if err != nil {
		return err
	}
	update, err := d.findClickable(root, u.Texts.Update, "locate update")
	if errors.Is(err, failure.ErrElementNotFound) {
		cont, cerr := d.findClickable(root, u.Texts.Continue, "locate continue")
		if cerr != nil {
			return err
		}
		if err := d.click(ctx, cont, "continue to actions"); err != nil {
			return err
		}
		if err := poll.Sleep(ctx, u.Policy.ActionsSettle); err != nil {
			return failure.Wrap(failure.HostOperationFailed, "settle actions", err)
		}
		if root, err = d.snapshot(ctx, "snapshot actions form"); err != nil {
			return err
		}
		update, err = d.findClickable(root, u.Texts.Update, "locate update")
	}
	if err != nil {
		return err
	}
	if err := d.click(ctx, update, "update rule"); err != nil {
		return err
	}
	if err := poll.Sleep(ctx, u.Policy.UpdateSettle); err != nil {
		return failure.Wrap(failure.HostOperationFailed, "settle update", err)
	}
	return nil
}

func (u *Updater) cancel(ctx context.Context, d driver) {
	root, err := d.snapshot(ctx, "snapshot edit view")
	if err != nil {
		u.Logger.Warn("edit view left open", zap.Error(err))
		return
	}
	cancel, _ := dom.FindClickableByText(root, u.Texts.Cancel)
	if cancel == nil {
		return
	}
	if err := d.click(ctx, cancel, "cancel edit"); err != nil {
		u.Logger.Warn("edit view left open", zap.Error(err))
	}
}
