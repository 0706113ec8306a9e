package gmail

import "context"

// Client is the narrow Gmail surface required to verify filters.
type Client interface {
	ListFilters(ctx context.Context) ([]Filter, error)
	ListLabels(ctx context.Context) (map[string]LabelID, map[LabelID]string, error)
	EnsureLabel(ctx context.Context, name string) (LabelID, error)
}
