package filters

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/joshsymonds/autolabel/internal/dom"
	"github.com/joshsymonds/autolabel/internal/failure"
	"github.com/joshsymonds/autolabel/internal/host"
)

// driver wraps a host.Page with failure tagging shared by every step.
type driver struct {
	page   host.Page
	logger *zap.Logger
}

func (d driver) snapshot(ctx context.Context, op string) (*html.Node, error) {
	root, err := d.page.Snapshot(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.HostOperationFailed, op, err)
	}
	return root, nil
}

func (d driver) click(ctx context.Context, n *html.Node, op string) error {
	ref := dom.Ref(n)
	if ref == "" {
		return failure.New(failure.HostOperationFailed, op, "element has no ref")
	}
	d.logger.Debug("click", zap.String("op", op), zap.String("ref", ref), zap.String("text", dom.Text(n)))
	if err := d.page.Click(ctx, ref); err != nil {
		return failure.Wrap(failure.HostOperationFailed, op, err)
	}
	return nil
}

func (d driver) setValue(ctx context.Context, n *html.Node, value, op string) error {
	ref := dom.Ref(n)
	if ref == "" {
		return failure.New(failure.HostOperationFailed, op, "element has no ref")
	}
	d.logger.Debug("set value", zap.String("op", op), zap.String("ref", ref), zap.String("value", value))
	if err := d.page.SetValue(ctx, ref, value); err != nil {
		return failure.Wrap(failure.HostOperationFailed, op, err)
	}
	return nil
}

// findClickable locates a required affordance by its wording variants.
func (d driver) findClickable(root *html.Node, variants []string, op string) (*html.Node, error) {
	n, variant := dom.FindClickableByText(root, variants)
	if n == nil {
		return nil, failure.New(failure.ElementNotFound, op, "no element labelled %s", quoteAll(variants))
	}
	d.logger.Debug("located affordance", zap.String("op", op), zap.String("variant", variant))
	return n, nil
}

// findInput locates a required control by label association.
func (d driver) findInput(root *html.Node, labels []string, op string) (*html.Node, error) {
	n := dom.FindInputByLabel(root, labels)
	if n == nil {
		return nil, failure.New(failure.ElementNotFound, op, "no input labelled %s", quoteAll(labels))
	}
	return n, nil
}

func quoteAll(variants []string) string {
	quoted := make([]string, len(variants))
	for i, v := range variants {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, " or ")
}
