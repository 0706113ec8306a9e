package gmailctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/joshsymonds/autolabel/internal/gmail"
)

// Export mirrors the JSON payload produced by `gmailctl compile --format=json`.
type Export struct {
	Filters []Filter `json:"filters"`
	Labels  []Label  `json:"labels"`
}

// Filter represents a single Gmail filter definition.
type Filter struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Criteria FilterCriteria `json:"criteria"`
	Action   FilterAction   `json:"action"`
}

// FilterCriteria captures the search predicates of a compiled filter.
type FilterCriteria struct {
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Query        string `json:"query,omitempty"`
	NegatedQuery string `json:"negatedQuery,omitempty"`
	List         string `json:"list,omitempty"`
}

// FilterAction describes the Gmail actions for a filter.
type FilterAction struct {
	AddLabelIDs    []string `json:"addLabelIds,omitempty"`
	RemoveLabelIDs []string `json:"removeLabelIds,omitempty"`
	Forward        string   `json:"forward,omitempty"`
}

// Label mirrors Gmail label metadata in the compile output.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Runner shells out to the gmailctl binary to obtain compiled filters.
type Runner struct {
	Binary    string
	ConfigDir string
}

// ExportFilters invokes gmailctl and parses the resulting JSON export.
func (r Runner) ExportFilters(ctx context.Context) (Export, error) {
	bin := r.Binary
	if bin == "" {
		bin = "gmailctl"
	}
	args := []string{"compile", "--format=json"}
	if strings.TrimSpace(r.ConfigDir) != "" {
		args = append(args, "--config", r.ConfigDir)
	}
	cmd := exec.CommandContext(ctx, bin, args...) // #nosec G204 - binary determined by user input
	out, err := cmd.CombinedOutput()
	if err != nil {
		return Export{}, fmt.Errorf(
			"run gmailctl: %w (output: %s)",
			err,
			strings.TrimSpace(string(out)),
		)
	}
	return Decode(bytes.NewReader(out))
}

// Decode parses a compile export. An export with neither filters nor
// labels is treated as a misconfiguration.
func Decode(r io.Reader) (Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("decode gmailctl output: %w", err)
	}
	if len(export.Filters) == 0 && len(export.Labels) == 0 {
		return Export{}, errors.New("gmailctl returned no filters or labels")
	}
	return export, nil
}

// GmailFilters converts the export to the API's filter model.
func (e Export) GmailFilters() []gmail.Filter {
	out := make([]gmail.Filter, 0, len(e.Filters))
	for _, f := range e.Filters {
		c := f.Criteria
		query := c.Query
		if c.List != "" {
			query = strings.TrimSpace(query + " list:" + c.List)
		}
		out = append(out, gmail.Filter{
			ID: gmail.FilterID(f.ID),
			Criteria: gmail.FilterCriteria{
				From:         c.From,
				To:           c.To,
				Subject:      c.Subject,
				Query:        query,
				NegatedQuery: c.NegatedQuery,
			},
			Action: gmail.FilterAction{
				AddLabels:    labelIDs(f.Action.AddLabelIDs),
				RemoveLabels: labelIDs(f.Action.RemoveLabelIDs),
				Forward:      f.Action.Forward,
			},
		})
	}
	return out
}

// LabelMaps indexes the export's labels like gmail.Client.ListLabels does.
func (e Export) LabelMaps() (map[string]gmail.LabelID, map[gmail.LabelID]string) {
	byName := make(map[string]gmail.LabelID, len(e.Labels))
	byID := make(map[gmail.LabelID]string, len(e.Labels))
	for _, l := range e.Labels {
		byName[l.Name] = gmail.LabelID(l.ID)
		byID[gmail.LabelID(l.ID)] = l.Name
	}
	return byName, byID
}

func labelIDs(ids []string) []gmail.LabelID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]gmail.LabelID, len(ids))
	for i, id := range ids {
		out[i] = gmail.LabelID(id)
	}
	return out
}
