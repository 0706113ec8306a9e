package filters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host"
	"github.com/joshsymonds/autolabel/internal/poll"
)

// Creator drives the rule-creation wizard up to the label picker. Choosing
// the label itself is left to the user: the picker exposes no stable
// affordance to select an option by name.
type Creator struct {
	Page   host.Page
	Policy Policy
	Texts  Texts
	Prefix string
	Logger *zap.Logger
}

// NewCreator constructs a Creator; a nil logger discards output.
func NewCreator(page host.Page, policy Policy, texts Texts, prefix string, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{Page: page, Policy: policy, Texts: texts, Prefix: prefix, Logger: logger}
}

// Create opens the wizard, writes sender and marker into the criteria,
// advances to the action step and enables "apply label". On success the
// wizard is waiting for the user to pick label and confirm.
func (c *Creator) Create(ctx context.Context, sender, label string) error {
	d := driver{page: c.Page, logger: c.Logger}
	marker := NewMarker(c.Prefix, label)

	root, err := d.snapshot(ctx, "snapshot filter list")
	if err != nil {
		return err
	}
	create, err := d.findClickable(root, c.Texts.CreateFilter, "locate create filter")
	if err != nil {
		return err
	}
	if err := d.click(ctx, create, "open create filter"); err != nil {
		return err
	}

	res, err := poll.Until(ctx, c.criteriaRendered, c.Policy.PollInterval, c.Policy.FormTimeout)
	if err != nil {
		return failure.Wrap(failure.HostOperationFailed, "wait for criteria form", err)
	}
	if res == poll.TimedOut {
		return failure.New(failure.FormNotReady, "wait for criteria form", "no criteria input after %s", c.Policy.FormTimeout)
	}

	root, err = d.snapshot(ctx, "snapshot criteria form")
	if err != nil {
		return err
	}
	from, err := d.findInput(root, c.Texts.From, "locate from input")
	if err != nil {
		return err
	}
	if err := d.setValue(ctx, from, sender, "fill from input"); err != nil {
		return err
	}

	c.writeMarker(ctx, d, marker)

	if err := poll.Sleep(ctx, c.Policy.CriteriaSettle); err != nil {
		return failure.Wrap(failure.HostOperationFailed, "settle criteria", err)
	}
	root, err = d.snapshot(ctx, "snapshot criteria form")
	if err != nil {
		return err
	}
	proceed, err := d.findClickable(root, c.Texts.Proceed, "locate proceed to actions")
	if err != nil {
		return err
	}
	if err := d.click(ctx, proceed, "proceed to actions"); err != nil {
		return err
	}

	if err := poll.Sleep(ctx, c.Policy.ActionsSettle); err != nil {
		return failure.Wrap(failure.HostOperationFailed, "settle actions", err)
	}
	root, err = d.snapshot(ctx, "snapshot actions form")
	if err != nil {
		return err
	}
	toggle, err := d.findInput(root, c.Texts.ApplyLabel, "locate apply label")
	if err != nil {
		return err
	}
	if !dom.IsChecked(toggle) {
		if err := d.click(ctx, toggle, "enable apply label"); err != nil {
			return err
		}
		if err := poll.Sleep(ctx, c.Policy.ToggleSettle); err != nil {
			return failure.Wrap(failure.HostOperationFailed, "settle apply label", err)
		}
	}

	c.Logger.Info("filter wizard prepared; label selection left to user",
		zap.String("sender", sender),
		zap.String("label", label),
		zap.Stringer("marker", marker))
	return nil
}

// writeMarker is best-effort: some layouts have no exclusion field.
func (c *Creator) writeMarker(ctx context.Context, d driver, marker Marker) {
	root, err := d.snapshot(ctx, "snapshot criteria form")
	if err != nil {
		c.Logger.Warn("marker not written", zap.Error(err))
		return
	}
	exclude := dom.FindInputByLabel(root, c.Texts.DoesntHave)
	if exclude == nil {
		c.Logger.Warn("no exclusion field; rule will not be recognised on later runs",
			zap.Stringer("marker", marker))
		return
	}
	if err := d.setValue(ctx, exclude, marker.String(), "fill exclusion input"); err != nil {
		c.Logger.Warn("marker not written", zap.Error(err))
	}
}

func (c *Creator) criteriaRendered(ctx context.Context) (bool, error) {
	root, err := c.Page.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("snapshot: %w", err)
	}
	return dom.HasLabeledInput(root, c.Texts.CriteriaLabels), nil
}
