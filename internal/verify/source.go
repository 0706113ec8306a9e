package verify

import (
	"context"
	"errors"

	"github.com/joshsymonds/autolabel/internal/gmail"
	"github.com/joshsymonds/autolabel/internal/gmailctl"
)

// Source yields the account's filters and labels.
type Source interface {
	Filters(ctx context.Context) ([]gmail.Filter, error)
	Labels(ctx context.Context) (map[string]gmail.LabelID, map[gmail.LabelID]string, error)
}

// APISource reads live state through the Gmail API.
type APISource struct {
	Client gmail.Client
}

func (s APISource) Filters(ctx context.Context) ([]gmail.Filter, error) {
	return s.Client.ListFilters(ctx)
}

func (s APISource) Labels(ctx context.Context) (map[string]gmail.LabelID, map[gmail.LabelID]string, error) {
	return s.Client.ListLabels(ctx)
}

// GmailctlLoader loads compiled gmailctl filters.
type GmailctlLoader interface {
	ExportFilters(ctx context.Context) (gmailctl.Export, error)
}

// ExportSource reads a gmailctl compile export. The export is loaded once
// and reused for both filters and labels.
type ExportSource struct {
	Loader GmailctlLoader

	export *gmailctl.Export
}

func (s *ExportSource) load(ctx context.Context) (gmailctl.Export, error) {
	if s.export != nil {
		return *s.export, nil
	}
	if s.Loader == nil {
		return gmailctl.Export{}, errors.New("no gmailctl loader configured")
	}
	export, err := s.Loader.ExportFilters(ctx)
	if err != nil {
		return gmailctl.Export{}, err
	}
	s.export = &export
	return export, nil
}

func (s *ExportSource) Filters(ctx context.Context) ([]gmail.Filter, error) {
	export, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return export.GmailFilters(), nil
}

func (s *ExportSource) Labels(ctx context.Context) (map[string]gmail.LabelID, map[gmail.LabelID]string, error) {
	export, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	byName, byID := export.LabelMaps()
	return byName, byID, nil
}
