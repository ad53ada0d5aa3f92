package input

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type interactive struct {
	in  io.Reader
	out io.Writer
}

func (i *interactive) run(m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(i.in), tea.WithOutput(i.out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}

func (i *interactive) PromptText(prompt string, opts TextOptions) (string, error) {
	final, err := i.run(newTextModel(prompt, opts))
	if err != nil {
		return "", err
	}
	m := final.(textModel)
	if !m.done {
		return "", ErrCancelled
	}
	return m.input.Value(), nil
}

func (i *interactive) Select(prompt string, options []string) (string, error) {
	final, err := i.run(newSelectModel(prompt, options))
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if !m.done {
		return "", ErrCancelled
	}
	return m.choice, nil
}

func (i *interactive) Confirm(prompt string, def *bool) (bool, error) {
	final, err := i.run(newConfirmModel(prompt, def))
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if !m.done {
		return false, ErrCancelled
	}
	return m.answer, nil
}

type textModel struct {
	prompt   string
	input    textinput.Model
	format   Formatter
	validate Validator
	errMsg   string
	done     bool
}

func newTextModel(prompt string, opts TextOptions) textModel {
	ti := textinput.New()
	ti.Placeholder = opts.Placeholder
	ti.Prompt = ""
	ti.Focus()
	return textModel{prompt: prompt, input: ti, format: opts.Formatter, validate: opts.Validator}
}

func (m textModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.validate != nil {
				if err := m.validate(m.input.Value()); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m textModel) View() string {
	if m.done {
		value := m.input.Value()
		if m.format != nil {
			value = m.format(value)
		}
		return promptStyle.Render("? "+m.prompt) + " " + answerStyle.Render(value) + "\n"
	}
	view := promptStyle.Render("? "+m.prompt) + " " + m.input.View() + "\n"
	if m.errMsg != "" {
		view += errorStyle.Render("✗ "+m.errMsg) + "\n"
	}
	return view
}

type option string

func (o option) Title() string       { return string(o) }
func (o option) Description() string { return "" }
func (o option) FilterValue() string { return string(o) }

type selectModel struct {
	prompt string
	list   list.Model
	choice string
	done   bool
}

func newSelectModel(prompt string, options []string) selectModel {
	items := make([]list.Item, 0, len(options))
	for _, o := range options {
		items = append(items, option(o))
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	height := len(options) + 6
	if height > 20 {
		height = 20
	}
	l := list.New(items, delegate, 60, height)
	l.Title = prompt
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return selectModel{prompt: prompt, list: l}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			if selected, ok := m.list.SelectedItem().(option); ok {
				m.choice = string(selected)
				m.done = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string {
	if m.done {
		return promptStyle.Render("? "+m.prompt) + " " + answerStyle.Render(m.choice) + "\n"
	}
	return m.list.View()
}

type confirmModel struct {
	prompt string
	def    *bool
	answer bool
	done   bool
}

func newConfirmModel(prompt string, def *bool) confirmModel {
	return confirmModel{prompt: prompt, def: def}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.answer, m.done = false, true
		return m, tea.Quit
	case "enter":
		if m.def != nil {
			m.answer, m.done = *m.def, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	hint := "(y/n)"
	if m.def != nil {
		if *m.def {
			hint = "(Y/n)"
		} else {
			hint = "(y/N)"
		}
	}
	if m.done {
		answer := "No"
		if m.answer {
			answer = "Yes"
		}
		return promptStyle.Render("? "+m.prompt) + " " + answerStyle.Render(answer) + "\n"
	}
	return promptStyle.Render("? "+m.prompt) + " " + hintStyle.Render(hint) + " "
}
