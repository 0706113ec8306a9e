package gmailsim

import (
	"context"
	"sync"

	"github.com/joshsymonds/autolabel/internal/host"
)

// Notifier answers prompts from a script and records every message.
type Notifier struct {
	mu      sync.Mutex
	answers []string
	prompts []string
	alerts  []string
	// PromptErr, when set, is returned by every Prompt call.
	PromptErr error
}

var _ host.Notifier = (*Notifier)(nil)

// NewNotifier answers prompts with answers in order, then with "".
func NewNotifier(answers ...string) *Notifier {
	return &Notifier{answers: answers}
}

func (n *Notifier) Alert(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
	return nil
}

func (n *Notifier) Prompt(_ context.Context, message string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts = append(n.prompts, message)
	if n.PromptErr != nil {
		return "", n.PromptErr
	}
	if len(n.answers) == 0 {
		return "", nil
	}
	answer := n.answers[0]
	n.answers = n.answers[1:]
	return answer, nil
}

// Alerts returns the messages shown so far.
func (n *Notifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

// Prompts returns the questions asked so far.
func (n *Notifier) Prompts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.prompts...)
}
