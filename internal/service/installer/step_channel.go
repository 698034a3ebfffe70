package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

var channelEnvKeys = map[string]string{
	"HTTP API": "ENABLE_HTTP",
	"Telegram": "ENABLE_TELEGRAM",
	"Terminal": "ENABLE_CLI",
	"MCP":      "ENABLE_MCP",
}

// ChannelStep toggles the transports the server starts with. Space toggles,
// enter confirms.
type ChannelStep struct {
	choices  []string
	selected map[int]bool
	cursor   int
}

func NewChannelStep() Step {
	return &ChannelStep{
		choices:  []string{"HTTP API", "Telegram", "Terminal", "MCP"},
		selected: map[int]bool{0: true},
		cursor:   0,
	}
}

func (s *ChannelStep) Init() tea.Cmd {
	return nil
}

func (s *ChannelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case " ":
			s.selected[s.cursor] = !s.selected[s.cursor]
		case "enter":
			for i, choice := range s.choices {
				value := "false"
				if s.selected[i] {
					value = "true"
				}
				state.EnvVars[channelEnvKeys[choice]] = value
			}
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChannelStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString("Select the transports to serve (space toggles):\n\n")
	for i, choice := range s.choices {
		mark := "[ ]"
		if s.selected[i] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, choice)
		if s.cursor == i {
			b.WriteString(selStyle.Render("❯ "+line) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n(press enter to confirm, ctrl+c to quit)\n")
	return b.String()
}
