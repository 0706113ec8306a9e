// internal/runtime/googleapi.go adapts *gmail.Service to our small interface
package runtime

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/autolabel/internal/gmail"
	"github.com/joshsymonds/autolabel/internal/rate"
)

type googleClient struct {
	svc     *gmail.Service
	limiter rate.Limiter
}

// NewGoogleAPIClient wraps svc; a nil limiter disables throttling.
func NewGoogleAPIClient(svc *gmail.Service, limiter rate.Limiter) gc.Client {
	return &googleClient{svc: svc, limiter: limiter}
}

func (g *googleClient) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

func (g *googleClient) ListFilters(ctx context.Context) ([]gc.Filter, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	res, err := g.svc.Users.Settings.Filters.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	out := make([]gc.Filter, 0, len(res.Filter))
	for _, f := range res.Filter {
		out = append(out, fromAPIFilter(f))
	}
	return out, nil
}

func fromAPIFilter(f *gmail.Filter) gc.Filter {
	out := gc.Filter{ID: gc.FilterID(f.Id)}
	if c := f.Criteria; c != nil {
		out.Criteria = gc.FilterCriteria{
			From:         c.From,
			To:           c.To,
			Subject:      c.Subject,
			Query:        c.Query,
			NegatedQuery: c.NegatedQuery,
		}
	}
	if a := f.Action; a != nil {
		out.Action = gc.FilterAction{
			AddLabels:    toLabelIDs(a.AddLabelIds),
			RemoveLabels: toLabelIDs(a.RemoveLabelIds),
			Forward:      a.Forward,
		}
	}
	return out
}

func (g *googleClient) ListLabels(ctx context.Context) (map[string]gc.LabelID, map[gc.LabelID]string, error) {
	if err := g.wait(ctx); err != nil {
		return nil, nil, err
	}
	lr, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list labels: %w", err)
	}
	byName := map[string]gc.LabelID{}
	byID := map[gc.LabelID]string{}
	for _, l := range lr.Labels {
		byName[l.Name] = gc.LabelID(l.Id)
		byID[gc.LabelID(l.Id)] = l.Name
	}
	return byName, byID, nil
}

func (g *googleClient) EnsureLabel(ctx context.Context, name string) (gc.LabelID, error) {
	byName, _, err := g.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	if id, ok := byName[name]; ok {
		return id, nil
	}
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	created, err := g.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	return gc.LabelID(created.Id), nil
}

func toLabelIDs(ids []string) []gc.LabelID {
	out := make([]gc.LabelID, len(ids))
	for i, id := range ids {
		out[i] = gc.LabelID(id)
	}
	return out
}
