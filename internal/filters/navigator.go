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

// Navigator moves the page to the filter list and back.
type Navigator struct {
	Page   host.Page
	Policy Policy
	Texts  Texts
	Logger *zap.Logger
}

// NewNavigator constructs a Navigator; a nil logger discards output.
func NewNavigator(page host.Page, policy Policy, texts Texts, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{Page: page, Policy: policy, Texts: texts, Logger: logger}
}

// GotoFilterSettings sets the location and waits for the filter list to
// render. A timeout is not an error: partial renders are common and later
// lookups report their own failures, so the caller proceeds optimistically.
func (n *Navigator) GotoFilterSettings(ctx context.Context) (poll.Result, error) {
	if err := n.Page.SetLocation(ctx, n.Policy.FiltersLocation); err != nil {
		return poll.TimedOut, failure.Wrap(failure.HostOperationFailed, "navigate to filter settings", err)
	}
	res, err := poll.Until(ctx, n.ready, n.Policy.PollInterval, n.Policy.NavigationTimeout)
	if err != nil {
		return res, failure.Wrap(failure.HostOperationFailed, "wait for filter settings", err)
	}
	if res == poll.TimedOut {
		n.Logger.Warn("filter settings not detected, proceeding",
			zap.Error(failure.ErrNavigationTimeout),
			zap.Duration("timeout", n.Policy.NavigationTimeout))
		return res, nil
	}
	if err := poll.Sleep(ctx, n.Policy.NavigationSettle); err != nil {
		return res, failure.Wrap(failure.HostOperationFailed, "settle filter settings", err)
	}
	n.Logger.Debug("filter settings rendered", zap.String("location", n.Policy.FiltersLocation))
	return res, nil
}

// ready is the settings-specific marker: the create-filter affordance is on screen.
func (n *Navigator) ready(ctx context.Context) (bool, error) {
	root, err := n.Page.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("snapshot: %w", err)
	}
	el, _ := dom.FindClickableByText(root, n.Texts.CreateFilter)
	return el != nil, nil
}

// Restore returns the page to location.
func (n *Navigator) Restore(ctx context.Context, location string) error {
	current, err := n.Page.Location(ctx)
	if err == nil && current == location {
		return nil
	}
	if err := n.Page.SetLocation(ctx, location); err != nil {
		return failure.Wrap(failure.HostOperationFailed, "restore location", err)
	}
	n.Logger.Debug("location restored", zap.String("location", location))
	return nil
}
