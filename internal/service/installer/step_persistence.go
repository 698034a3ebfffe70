package installer

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	fs "github.com/sandevgo/talkdata/configs"
	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/pkg/env"
)

// envFile is the typed shape of the .env the wizard produces. The tags keep
// the file keys in one place and in sync with the config structs.
type envFile struct {
	Provider string `env:"LLM_PROVIDER"`

	AzureEndpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey     string `env:"AZURE_OPENAI_API_KEY"`
	AzureDeployment string `env:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	CustomAPIKey    string `env:"CUSTOM_OPENAI_API_KEY"`

	EnableHTTP     string `env:"ENABLE_HTTP"`
	EnableTelegram string `env:"ENABLE_TELEGRAM"`
	EnableCLI      string `env:"ENABLE_CLI"`
	EnableMCP      string `env:"ENABLE_MCP"`

	TelegramToken   string `env:"TELEGRAM_TOKEN"`
	TelegramOwnerID string `env:"TELEGRAM_OWNER_ID"`
}

func envFileFromState(state *InstallState) *envFile {
	get := func(key string) string { return state.EnvVars[key] }
	return &envFile{
		Provider:        get("LLM_PROVIDER"),
		AzureEndpoint:   get("AZURE_OPENAI_ENDPOINT"),
		AzureAPIKey:     get("AZURE_OPENAI_API_KEY"),
		AzureDeployment: get("AZURE_OPENAI_DEPLOYMENT_NAME"),
		OpenAIAPIKey:    get("OPENAI_API_KEY"),
		CustomAPIKey:    get("CUSTOM_OPENAI_API_KEY"),
		EnableHTTP:      get("ENABLE_HTTP"),
		EnableTelegram:  get("ENABLE_TELEGRAM"),
		EnableCLI:       get("ENABLE_CLI"),
		EnableMCP:       get("ENABLE_MCP"),
		TelegramToken:   get("TELEGRAM_TOKEN"),
		TelegramOwnerID: get("TELEGRAM_OWNER_ID"),
	}
}

// SaveEnvStep writes the collected configuration to the .env file
type SaveEnvStep struct {
	err   error
	saved bool
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}

	path := config.GetRuntimePath()

	if err := os.MkdirAll(path, 0755); err != nil {
		s.err = fmt.Errorf("failed to create runtime directory: %w", err)
		return s, nil
	}

	envPath := filepath.Join(path, ".env")

	// Never clobber an existing configuration
	if _, err := os.Stat(envPath); err == nil {
		s.err = fmt.Errorf(".env file already exists at %s", envPath)
		return s, nil
	}

	content, err := env.MarshalEnv(envFileFromState(state))
	if err != nil {
		s.err = err
		return s, nil
	}

	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil // Signal completion
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

// InitializeFilesStep copies the embedded prompt templates and the
// correction mapping into the runtime directory so operators can edit them
type InitializeFilesStep struct {
	err  error
	done bool
}

func NewInitializeFilesStep() Step {
	return &InitializeFilesStep{}
}

func (s *InitializeFilesStep) Init() tea.Cmd {
	return nil
}

func (s *InitializeFilesStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.done {
		return nil, nil
	}

	path := config.GetRuntimePath()

	if err := os.MkdirAll(path, 0755); err != nil {
		s.err = fmt.Errorf("failed to create runtime directory: %w", err)
		return s, nil
	}

	files := map[string][]byte{
		"query_prompt.tmpl":   []byte(fs.QueryPrompt),
		"summary_prompt.tmpl": []byte(fs.SummaryPrompt),
		"corrections.json":    fs.Corrections,
	}

	for name, data := range files {
		dst := filepath.Join(path, name)
		if _, err := os.Stat(dst); err == nil {
			continue // keep operator edits
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			s.err = fmt.Errorf("failed to write %s: %w", dst, err)
			return s, nil
		}
	}

	s.done = true
	return nil, nil
}

func (s *InitializeFilesStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.done {
		return "Runtime files initialized successfully!\n"
	}
	return "Initializing runtime files...\n"
}
