package terminal

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// promptModel asks for a single line of text.
type promptModel struct {
	question  string
	input     textinput.Model
	done      bool
	cancelled bool
}

func newPromptModel(question string) promptModel {
	ti := textinput.New()
	ti.Placeholder = "label name"
	ti.CharLimit = 225
	ti.Width = 40
	ti.Focus()
	return promptModel{question: question, input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return questionStyle.Render(m.question) + "\n" +
		m.input.View() + "\n" +
		helpStyle.Render("enter confirm • esc cancel") + "\n"
}

// Value is the answer; cancelling yields "".
func (m promptModel) Value() string {
	if m.cancelled {
		return ""
	}
	return m.input.Value()
}
