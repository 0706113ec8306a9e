// Package chrome drives a live Gmail tab over the Chrome DevTools protocol.
// Page implements both host.Page and host.Notifier.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/host"
	"github.com/joshsymonds/autolabel/internal/poll"
)

// ErrStaleRef is returned when a ref no longer resolves in the tab.
var ErrStaleRef = errors.New("element is no longer rendered")

// Options selects how the browser is reached.
type Options struct {
	// DevToolsURL attaches to a running browser (ws://host:port/...). When
	// empty a browser is started.
	DevToolsURL string
	// UserDataDir keeps the Gmail session between runs of a started browser.
	UserDataDir string
	Headless    bool
	// StartURL is loaded into the new tab.
	StartURL string
}

// Page is a single browser tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

var (
	_ host.Page     = (*Page)(nil)
	_ host.Notifier = (*Page)(nil)
)

// Open starts or attaches to a browser and opens a tab on opts.StartURL.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.DevToolsURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.DevToolsURL)
	} else {
		execOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		execOpts = append(execOpts, chromedp.Flag("headless", opts.Headless))
		if opts.UserDataDir != "" {
			execOpts = append(execOpts, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}

	sugar := logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf))

	p := &Page{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger: logger,
	}
	var actions []chromedp.Action
	if opts.StartURL != "" {
		actions = append(actions, chromedp.Navigate(opts.StartURL))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		p.Close()
		return nil, fmt.Errorf("open browser tab: %w", err)
	}
	logger.Info("browser tab opened", zap.String("url", opts.StartURL), zap.Bool("remote", opts.DevToolsURL != ""))
	return p, nil
}

// Close closes the tab and, for a started browser, the browser.
func (p *Page) Close() {
	p.cancel()
}

// run executes actions on the tab while honouring the caller's ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *Page) Snapshot(ctx context.Context) (*html.Node, error) {
	var markup string
	if err := p.run(ctx, chromedp.Evaluate(snapshotScript(), &markup)); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return root, nil
}

func (p *Page) Click(ctx context.Context, ref string) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(clickScript(ref), &ok)); err != nil {
		return fmt.Errorf("click %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("click %s: %w", ref, ErrStaleRef)
	}
	return nil
}

func (p *Page) SetValue(ctx context.Context, ref, value string) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(setValueScript(ref, value), &ok)); err != nil {
		return fmt.Errorf("set value %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("set value %s: %w", ref, ErrStaleRef)
	}
	return nil
}

// Location returns the URL fragment, which is how Gmail addresses views.
func (p *Page) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Evaluate(locationScript, &loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

func (p *Page) SetLocation(ctx context.Context, location string) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(setLocationScript(location), &ok)); err != nil {
		return fmt.Errorf("set location %s: %w", location, err)
	}
	return nil
}

// Alert blocks until the user dismisses the browser dialog.
func (p *Page) Alert(ctx context.Context, message string) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(alertScript(message), &ok)); err != nil {
		return fmt.Errorf("alert: %w", err)
	}
	return nil
}

// Prompt blocks until the user answers; cancel yields "".
func (p *Page) Prompt(ctx context.Context, message string) (string, error) {
	var answer string
	if err := p.run(ctx, chromedp.Evaluate(promptScript(message), &answer)); err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return answer, nil
}

// InstallTrigger arms the Alt+right-click listener. Gmail keeps one
// document for the whole session, so this is needed once per page load.
// It reports true when the listener was new, which means the activation
// counter restarted at zero.
func (p *Page) InstallTrigger(ctx context.Context) (bool, error) {
	var installed bool
	if err := p.run(ctx, chromedp.Evaluate(triggerScript(), &installed)); err != nil {
		return false, fmt.Errorf("install trigger: %w", err)
	}
	if installed {
		p.logger.Info("trigger installed; Alt+right-click a message to label its sender")
	}
	return installed, nil
}

// Trigger identifies one user activation.
type Trigger struct {
	Seq int
	// Ref is the origin element's ref in the snapshot taken after the trigger.
	Ref string
}

// WaitForTrigger polls until an activation newer than after is recorded.
func (p *Page) WaitForTrigger(ctx context.Context, after int, interval, timeout time.Duration) (Trigger, poll.Result, error) {
	var seq int
	cond := func(ctx context.Context) (bool, error) {
		if err := p.run(ctx, chromedp.Evaluate(triggerSeqScript, &seq)); err != nil {
			return false, err
		}
		return seq > after, nil
	}
	res, err := poll.Until(ctx, cond, interval, timeout)
	if err != nil || res == poll.TimedOut {
		return Trigger{}, res, err
	}

	root, err := p.Snapshot(ctx)
	if err != nil {
		return Trigger{}, res, err
	}
	want := strconv.Itoa(seq)
	origin := dom.First(root, func(n *html.Node) bool {
		v, ok := dom.Attr(n, OriginAttr)
		return ok && v == want
	})
	if origin == nil {
		return Trigger{Seq: seq}, res, fmt.Errorf("trigger %d: %w", seq, ErrStaleRef)
	}
	return Trigger{Seq: seq, Ref: dom.Ref(origin)}, res, nil
}
