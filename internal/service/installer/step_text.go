package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type textStepConfig struct {
	title       string
	envKey      string
	placeholder string
	// onlyFor skips the step unless LLM_PROVIDER matches
	onlyFor string
	secret  bool
}

// TextStep is a generic single-value prompt. Most of the wizard is plain
// text entry, the config decides which env key the value lands in.
type TextStep struct {
	cfg   textStepConfig
	input textinput.Model
}

func NewTextStep(cfg textStepConfig) Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50
	ti.Placeholder = cfg.placeholder
	if cfg.secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}

	return &TextStep{cfg: cfg, input: ti}
}

func (s *TextStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TextStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.skipped(state) {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			state.EnvVars[s.cfg.envKey] = s.input.Value()
			return nil, nil
		}
	}
	return s, cmd
}

func (s *TextStep) View(state *InstallState) string {
	if s.skipped(state) {
		return "Loading...\n"
	}
	return fmt.Sprintf("%s:\n\n%s\n\n(press enter to confirm)\n", s.cfg.title, s.input.View())
}

func (s *TextStep) skipped(state *InstallState) bool {
	return s.cfg.onlyFor != "" && state.EnvVars["LLM_PROVIDER"] != s.cfg.onlyFor
}
