// Package terminal implements host.Notifier on the controlling terminal, for
// runs where the browser tab should not be interrupted by page dialogs.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshsymonds/autolabel/internal/host"
)

// Notifier prompts with a bubbletea text input and prints alerts in a box.
type Notifier struct {
	In  io.Reader
	Out io.Writer
}

var _ host.Notifier = (*Notifier)(nil)

// New returns a Notifier on stdin/stdout.
func New() *Notifier {
	return &Notifier{In: os.Stdin, Out: os.Stdout}
}

func (n *Notifier) Alert(_ context.Context, message string) error {
	if _, err := fmt.Fprintln(n.Out, alertStyle.Render(message)); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}

func (n *Notifier) Prompt(ctx context.Context, message string) (string, error) {
	p := tea.NewProgram(newPromptModel(message),
		tea.WithContext(ctx),
		tea.WithInput(n.In),
		tea.WithOutput(n.Out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m, ok := final.(promptModel)
	if !ok {
		return "", fmt.Errorf("run prompt: unexpected model %T", final)
	}
	return m.Value(), nil
}
