package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/host"
	"github.com/joshsymonds/autolabel/internal/host/chrome"
	"github.com/joshsymonds/autolabel/internal/host/terminal"
	"github.com/joshsymonds/autolabel/internal/workflow"
)

// browserFlags are shared by the commands that drive a live tab.
type browserFlags struct {
	url      string
	terminal bool
}

func addBrowserFlags(cmd *cobra.Command, bf *browserFlags) {
	cmd.Flags().String("devtools-url", "", "attach to a running Chrome (ws://...) instead of starting one")
	cmd.Flags().String("user-data-dir", "", "Chrome profile directory holding the Gmail session")
	cmd.Flags().Bool("headless", false, "start Chrome headless")
	cmd.Flags().StringVar(&bf.url, "url", "", "page to open (default gmail.url)")
	cmd.Flags().BoolVar(&bf.terminal, "terminal", false, "ask for the label in this terminal instead of the page")
}

func (a *app) openBrowser(ctx context.Context, bf browserFlags) (*chrome.Page, host.Notifier, error) {
	url := bf.url
	if url == "" {
		url = a.cfg.Gmail.URL
	}
	page, err := chrome.Open(ctx, chrome.Options{
		DevToolsURL: a.cfg.Chrome.DevToolsURL,
		UserDataDir: a.cfg.Chrome.UserDataDir,
		Headless:    a.cfg.Chrome.Headless,
		StartURL:    url,
	}, a.logger.Named("chrome"))
	if err != nil {
		return nil, nil, err
	}
	var notifier host.Notifier = page
	if bf.terminal {
		notifier = terminal.New()
	}
	return page, notifier, nil
}

func (a *app) orchestrator(page host.Page, notifier host.Notifier) (*workflow.Orchestrator, error) {
	orch, err := workflow.New(page, notifier, a.cfg.Settings(), a.logger.Named("workflow"))
	if err != nil {
		return nil, fmt.Errorf("build workflow: %w", err)
	}
	return orch, nil
}

// originRef resolves a CSS selector to the ref of its first match.
func originRef(ctx context.Context, page host.Page, selector string) (string, error) {
	root, err := page.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	found, err := dom.SelectString(root, selector)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return dom.Ref(found[0]), nil
}

func report(cmd *cobra.Command, res workflow.Result) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s %s\n", res.RunID, res.State, res.Action, res.Sender)
	if res.State == workflow.Failed {
		return res.Err
	}
	return nil
}
