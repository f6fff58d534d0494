// Интерактивный мастер настройки: собирает LLM_* опции, проверяет их
// тестовым запросом и пишет .env файл.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/aicore/pkg/aicore"
	"github.com/ilkoid/aicore/pkg/config"
	"github.com/ilkoid/aicore/pkg/ui"
)

const setupFile = ".env"

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// setupStep — один вопрос мастера.
type setupStep struct {
	key      string
	title    string
	hint     string
	secret   bool
	optional bool
}

var setupSteps = []setupStep{
	{
		key:   "LLM_API_TYPE",
		title: "LLM API type",
		hint:  "open_ai | azure | anyscale | deep_infra | anthropic",
	},
	{
		key:    "LLM_API_KEY",
		title:  "API key",
		secret: true,
	},
	{
		key:      "MODEL",
		title:    "Model name",
		hint:     "empty = provider default",
		optional: true,
	},
	{
		key:      "LLM_API_BASE",
		title:    "API base URL",
		hint:     "may be empty for most API types",
		optional: true,
	},
}

// setupModel — bubbletea-модель мастера.
type setupModel struct {
	step    int
	input   textinput.Model
	answers map[string]string
	aborted bool
	errMsg  string
}

func newSetupModel() setupModel {
	m := setupModel{answers: map[string]string{}}
	m.input = newInput(setupSteps[0])
	return m
}

func newInput(step setupStep) textinput.Model {
	in := textinput.New()
	in.Prompt = "> "
	if step.secret {
		in.EchoMode = textinput.EchoPassword
	}
	in.Focus()
	return in
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit

		case tea.KeyEnter:
			step := setupSteps[m.step]
			value := strings.TrimSpace(m.input.Value())
			if value == "" && !step.optional {
				m.errMsg = "value is required"
				return m, nil
			}
			m.errMsg = ""
			if value != "" {
				m.answers[step.key] = value
			}

			m.step++
			if m.step >= len(setupSteps) {
				return m, tea.Quit
			}
			m.input = newInput(setupSteps[m.step])
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.step >= len(setupSteps) {
		return ""
	}
	step := setupSteps[m.step]

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("LLM setup [%d/%d]", m.step+1, len(setupSteps))))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render(step.title))
	b.WriteString("\n")
	if step.hint != "" {
		b.WriteString(hintStyle.Render(step.hint))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(hintStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("enter — next, esc — cancel"))
	return b.String()
}

// runSetup запускает мастер, тестирует конфигурацию и сохраняет .env.
func runSetup() error {
	final, err := tea.NewProgram(newSetupModel()).Run()
	if err != nil {
		return err
	}
	m := final.(setupModel)
	if m.aborted {
		ui.Dim("Setup cancelled")
		return nil
	}

	// Проверяем собранную конфигурацию тестовым запросом
	overrides := make(map[string]any, len(m.answers))
	for k, v := range m.answers {
		overrides[k] = v
	}
	if _, err := aicore.Configure(overrides, config.WithoutFile()); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	ui.Dim("Testing LLM...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := aicore.Ask(ctx, "What is the capital of France?\n(!) IMPORTANT: Answer only with one word")
	if err != nil {
		return fmt.Errorf("LLM test failed: %w", err)
	}
	if !strings.Contains(strings.ToLower(resp.Text()), "pari") {
		ui.Warning("Unexpected test answer: %s", resp.Text())
	} else {
		ui.Info("LLM test passed")
	}

	var body strings.Builder
	for _, step := range setupSteps {
		if v, ok := m.answers[step.key]; ok {
			fmt.Fprintf(&body, "%s=%s\n", step.key, v)
		}
	}
	if err := os.WriteFile(setupFile, []byte(body.String()), 0600); err != nil {
		return fmt.Errorf("write %s: %w", setupFile, err)
	}
	ui.Info("Configuration saved to %s", setupFile)
	return nil
}
