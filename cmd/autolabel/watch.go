package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/host/chrome"
	"github.com/joshsymonds/autolabel/internal/poll"
)

// watchSlice bounds one trigger wait so the listener is re-armed after
// Gmail reloads the page.
const watchSlice = 30 * time.Second

var watchRetry = time.Second

// triggerSource is the part of chrome.Page the watch loop needs.
type triggerSource interface {
	InstallTrigger(ctx context.Context) (bool, error)
	WaitForTrigger(ctx context.Context, after int, interval, timeout time.Duration) (chrome.Trigger, poll.Result, error)
}

func newWatchCmd(a *app) *cobra.Command {
	var bf browserFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Label the sender of every message you Alt+right-click",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			page, notifier, err := a.openBrowser(ctx, bf)
			if err != nil {
				return err
			}
			defer page.Close()
			orch, err := a.orchestrator(page, notifier)
			if err != nil {
				return err
			}
			return a.watchLoop(ctx, page, func(ctx context.Context, ref string) error {
				return report(cmd, orch.Run(ctx, ref))
			})
		},
	}
	addBrowserFlags(cmd, &bf)
	return cmd
}

// watchLoop runs fn for every activation until ctx ends. Failures of a
// single install, wait or run are logged and the loop carries on.
func (a *app) watchLoop(ctx context.Context, src triggerSource, fn func(ctx context.Context, ref string) error) error {
	last := 0
	for {
		fresh, err := src.InstallTrigger(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			// Gmail reloads destroy the execution context mid-call.
			a.logger.Warn("trigger not installed; retrying", zap.Error(err))
			if poll.Sleep(ctx, watchRetry) != nil {
				return nil
			}
			continue
		}
		if fresh {
			last = 0
		}

		trig, res, err := src.WaitForTrigger(ctx, last, a.cfg.Waits.PollInterval, watchSlice)
		if ctx.Err() != nil {
			return nil
		}
		if trig.Seq > last {
			last = trig.Seq
		}
		if err != nil {
			a.logger.Warn("trigger lost", zap.Error(err))
			continue
		}
		if res == poll.TimedOut {
			continue
		}
		if err := fn(ctx, trig.Ref); err != nil {
			a.logger.Warn("run failed", zap.Error(err))
		}
	}
}

var _ triggerSource = (*chrome.Page)(nil)
