// Package verify checks, after the manual final step, that the account holds
// exactly one marker-tagged filter for a label and that it is complete.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/filters"
	"github.com/joshsymonds/autolabel/internal/gmail"
)

// Problem names a defect a report can carry; the strings double as
// --fail-on tokens.
const (
	ProblemMissing       = "missing"
	ProblemDuplicate     = "duplicate"
	ProblemMissingSender = "missing-sender"
	ProblemMissingLabel  = "missing-label"
	ProblemNotApplied    = "not-applied"
)

// Options selects what to verify.
type Options struct {
	Label        string
	Sender       string
	MarkerPrefix string
	// EnsureLabel creates the label first so the wizard's picker offers it.
	EnsureLabel bool
}

// Match is one filter carrying the label's marker.
type Match struct {
	ID           gmail.FilterID
	Senders      []string
	LabelApplied bool
}

// Report is the outcome of Check.
type Report struct {
	Label         string
	Marker        string
	Sender        string
	LabelID       gmail.LabelID
	LabelExists   bool
	LabelCreated  bool
	Matches       []Match
	SenderPresent bool
}

// Service executes verification against a Source.
type Service struct {
	Source Source
	// Client is only needed for Options.EnsureLabel.
	Client gmail.Client
	Logger *zap.Logger
}

// NewService constructs a Service; a nil logger discards output.
func NewService(source Source, client gmail.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Source: source, Client: client, Logger: logger}
}

// Check inspects every filter for the marker of opts.Label.
func (s *Service) Check(ctx context.Context, opts Options) (Report, error) {
	label := strings.TrimSpace(opts.Label)
	if label == "" {
		return Report{}, errors.New("label is required")
	}
	marker := filters.NewMarker(opts.MarkerPrefix, label)
	rep := Report{Label: label, Marker: marker.String(), Sender: strings.TrimSpace(opts.Sender)}

	var ensured gmail.LabelID
	if opts.EnsureLabel {
		if s.Client == nil {
			return Report{}, errors.New("ensuring a label requires the Gmail API source")
		}
		byName, _, err := s.Client.ListLabels(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("list labels: %w", err)
		}
		id, ok := byName[label]
		if !ok {
			if id, err = s.Client.EnsureLabel(ctx, label); err != nil {
				return Report{}, fmt.Errorf("ensure label: %w", err)
			}
			rep.LabelCreated = true
			s.Logger.Info("label created", zap.String("label", label), zap.String("id", string(id)))
		}
		ensured = id
	}

	byName, _, err := s.Source.Labels(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list labels: %w", err)
	}
	rep.LabelID, rep.LabelExists = byName[label]
	// A gmailctl export predates a label just created through the API.
	if !rep.LabelExists && ensured != "" {
		rep.LabelID, rep.LabelExists = ensured, true
	}

	all, err := s.Source.Filters(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list filters: %w", err)
	}
	for _, f := range all {
		if !marker.FoundIn(f.Criteria.NegatedQuery) && !marker.FoundIn(f.Criteria.Query) {
			continue
		}
		m := Match{ID: f.ID, Senders: filters.Senders(f.Criteria.From)}
		for _, id := range f.Action.AddLabels {
			if rep.LabelExists && id == rep.LabelID {
				m.LabelApplied = true
			}
		}
		if filters.HasSender(f.Criteria.From, rep.Sender) {
			rep.SenderPresent = true
		}
		rep.Matches = append(rep.Matches, m)
	}
	s.Logger.Debug("verification complete",
		zap.String("label", label),
		zap.Int("matches", len(rep.Matches)),
		zap.Strings("problems", rep.Problems()))
	return rep, nil
}

// Problems lists the defects found, in a stable order.
func (r Report) Problems() []string {
	var out []string
	switch {
	case len(r.Matches) == 0:
		out = append(out, ProblemMissing)
	case len(r.Matches) > 1:
		out = append(out, ProblemDuplicate)
	}
	if r.Sender != "" && len(r.Matches) > 0 && !r.SenderPresent {
		out = append(out, ProblemMissingSender)
	}
	if !r.LabelExists {
		out = append(out, ProblemMissingLabel)
	}
	for _, m := range r.Matches {
		if !m.LabelApplied {
			out = append(out, ProblemNotApplied)
			break
		}
	}
	return out
}

// OK reports whether no problems were found.
func (r Report) OK() bool { return len(r.Problems()) == 0 }

// ShouldFail reports whether any of the requested problems are present. An
// empty failOn fails on any problem.
func (r Report) ShouldFail(failOn []string) bool {
	problems := r.Problems()
	if len(failOn) == 0 {
		return len(problems) > 0
	}
	present := make(map[string]bool, len(problems))
	for _, p := range problems {
		present[p] = true
	}
	for _, cond := range failOn {
		if present[strings.TrimSpace(strings.ToLower(cond))] {
			return true
		}
	}
	return false
}

// HumanSummary renders a concise CLI summary.
func (r Report) HumanSummary() string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "autolabel verify: label %q (marker %s)\n", r.Label, r.Marker)
	switch {
	case r.LabelCreated:
		fmt.Fprintf(builder, "  label created (%s)\n", r.LabelID)
	case r.LabelExists:
		fmt.Fprintf(builder, "  label exists (%s)\n", r.LabelID)
	default:
		builder.WriteString("  label does not exist\n")
	}
	for _, m := range r.Matches {
		senders := append([]string(nil), m.Senders...)
		sort.Strings(senders)
		applied := "label not applied"
		if m.LabelApplied {
			applied = "applies label"
		}
		fmt.Fprintf(builder, "  filter %s: from %s; %s\n", m.ID, strings.Join(senders, ", "), applied)
	}
	problems := r.Problems()
	if len(problems) == 0 {
		builder.WriteString("ok\n")
		return builder.String()
	}
	fmt.Fprintf(builder, "problems: %s\n", strings.Join(problems, ", "))
	return builder.String()
}

// ParseFailOn splits a comma separated list into canonical tokens.
func ParseFailOn(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
