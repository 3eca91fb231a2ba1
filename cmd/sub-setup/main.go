package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepEnteringUsername step = iota
	stepEnteringPassword
	stepLoggingIn
	stepEnteringName
	stepEnteringTitle
	stepEnteringDescription
	stepCreating
	stepComplete
)

type model struct {
	api          *apiClient
	step         step
	username     string
	password     string
	name         string
	title        string
	currentInput string
	message      string
	quitting     bool
}

type loginSuccessMsg struct{ user profile }
type createdMsg struct{ sub subView }
type errMsg struct {
	err  error
	back step
}

func initialModel(api *apiClient) model {
	return model{api: api, step: stepEnteringUsername}
}

func (m model) Init() tea.Cmd {
	return nil
}

func login(api *apiClient, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		user, err := api.login(ctx, username, password)
		if err != nil {
			return errMsg{err: err, back: stepEnteringUsername}
		}
		return loginSuccessMsg{user: user}
	}
}

func createSub(api *apiClient, name, title, description string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sub, err := api.createSub(ctx, name, title, description)
		if err != nil {
			return errMsg{err: err, back: stepEnteringName}
		}
		return createdMsg{sub: sub}
	}
}

func (m model) textStep() bool {
	switch m.step {
	case stepEnteringUsername, stepEnteringPassword, stepEnteringName, stepEnteringTitle, stepEnteringDescription:
		return true
	}
	return false
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyBackspace:
			if r := []rune(m.currentInput); len(r) > 0 {
				m.currentInput = string(r[:len(r)-1])
			}

		case tea.KeyRunes, tea.KeySpace:
			if m.textStep() {
				m.currentInput += msg.String()
			}

		case tea.KeyEnter:
			input := strings.TrimSpace(m.currentInput)
			switch m.step {
			case stepEnteringUsername:
				if input != "" {
					m.username = input
					m.currentInput = ""
					m.step = stepEnteringPassword
				}

			case stepEnteringPassword:
				if m.currentInput != "" {
					m.password = m.currentInput
					m.currentInput = ""
					m.step = stepLoggingIn
					m.message = "Logging in..."
					return m, login(m.api, m.username, m.password)
				}

			case stepEnteringName:
				if input != "" {
					m.name = input
					m.currentInput = ""
					m.step = stepEnteringTitle
				}

			case stepEnteringTitle:
				if input != "" {
					m.title = input
					m.currentInput = ""
					m.step = stepEnteringDescription
				}

			case stepEnteringDescription:
				m.currentInput = ""
				m.step = stepCreating
				m.message = "Creating community..."
				return m, createSub(m.api, m.name, m.title, input)

			case stepComplete:
				m.quitting = true
				return m, tea.Quit
			}
		}

	case loginSuccessMsg:
		m.password = ""
		m.step = stepEnteringName
		m.message = successStyle.Render("✓ Logged in as " + msg.user.Username)

	case createdMsg:
		m.step = stepComplete
		m.message = successStyle.Render(fmt.Sprintf("✓ Created /r/%s (%s)", msg.sub.Name, msg.sub.Title))

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.step = msg.back
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Community Setup Tool\n\n"))
	if m.message != "" && m.step != stepLoggingIn && m.step != stepCreating {
		s.WriteString(m.message + "\n\n")
	}

	prompt := func(label, value string) {
		s.WriteString(promptStyle.Render(label + "\n"))
		s.WriteString(inputStyle.Render("> " + value))
		s.WriteString("\n\nPress Enter\n")
	}

	switch m.step {
	case stepEnteringUsername:
		prompt("Enter your username:", m.currentInput)
	case stepEnteringPassword:
		prompt("Enter your password:", strings.Repeat("•", len([]rune(m.currentInput))))
	case stepEnteringName:
		prompt("Community name (letters, digits, underscores):", m.currentInput)
	case stepEnteringTitle:
		prompt("Community title:", m.currentInput)
	case stepEnteringDescription:
		prompt("Description (optional):", m.currentInput)
	case stepLoggingIn, stepCreating:
		s.WriteString(m.message + "\n")
	case stepComplete:
		s.WriteString("\nPress Enter to exit\n")
	}

	return s.String()
}

func main() {
	server := flag.String("server", envOr("SUB_SETUP_SERVER", "http://localhost:4000"), "community server base URL")
	flag.Parse()

	api, err := newAPIClient(*server)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(api))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
