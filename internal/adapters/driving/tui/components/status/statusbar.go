// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateAnswered State = "answered"
)

// conversationIDLen is how much of a conversation ID the bar shows.
const conversationIDLen = 8

// Bar displays application status and keybinding hints.
type Bar struct {
	styles         *styles.Styles
	keymap         *keymap.KeyMap
	state          State
	message        string
	sourceCount    int
	conversationID string
	width          int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is mostly passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the left side of the status bar.
func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateThinking:
		left = s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			left = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			left = s.styles.Error.Render("Error")
		}
	case StateHelp:
		left = s.styles.Normal.Render("Help")
	case StateAnswered:
		left = s.styles.Normal.Render(fmt.Sprintf("%d sources", s.sourceCount))
	default:
		left = s.styles.Muted.Render("Ready")
	}

	if s.conversationID != "" {
		id := s.conversationID
		if len(id) > conversationIDLen {
			id = id[:conversationIDLen]
		}
		left += s.styles.Muted.Render(" · conv " + id)
	}
	return left
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateAnswered || s.conversationID != "" {
		bindings = s.keymap.ChatHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSourceCount sets the number of sources cited by the last answer.
func (s *Bar) SetSourceCount(count int) {
	s.sourceCount = count
}

// SourceCount returns the current source count.
func (s *Bar) SourceCount() int {
	return s.sourceCount
}

// SetConversationID sets the active conversation.
func (s *Bar) SetConversationID(id string) {
	s.conversationID = id
}

// ConversationID returns the active conversation.
func (s *Bar) ConversationID() string {
	return s.conversationID
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
	s.conversationID = ""
}
