package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// chatView is the question and answer view.
	chatView *chat.View

	// documentsView lists uploaded documents. Nil without a document service.
	documentsView *documents.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	app := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s, ports.Document != nil),
		chatView:    chat.NewView(s, km, ports.Chat),
		currentView: messages.ViewMenu, // Start with menu
	}
	if ports.Document != nil {
		app.documentsView = documents.NewView(s, ports.Document)
	}
	return app, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	if a.documentsView != nil {
		a.documentsView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("caresync - Health Document Chat"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateKey(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.AnswerReceived:
		// Answers land in the chat view even if the user navigated away
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	case messages.ConversationReset:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
			a.err = a.documentsView.Err()
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewDocuments:
			if a.documentsView != nil {
				a.documentsView, cmd = a.documentsView.Update(msg)
			}
		case messages.ViewMenu, messages.ViewHelp:
			// Shown on the next view that renders errors
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (spinner ticks, cursor blinks) to the active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// updateKey forwards key messages to the active view.
func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		if a.documentsView == nil {
			a.currentView = messages.ViewMenu
			return a, nil
		}
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewHelp:
		// Esc or q from help goes to menu
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = messages.ViewMenu
		}
	}
	return a, cmd
}

// switchView activates a view and returns its start-up command.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewChat:
		a.currentView = view
		return a.chatView.Init()
	case messages.ViewDocuments:
		if a.documentsView == nil {
			return nil
		}
		a.currentView = view
		return a.documentsView.Load()
	case messages.ViewMenu, messages.ViewHelp:
		a.currentView = view
	}
	return nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewDocuments:
		if a.documentsView != nil {
			return a.documentsView.View()
		}
		return a.menuView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Chat:
  (type)      Enter a question
  enter       Ask
  ctrl+n      Start a new conversation
  tab         Switch between question and sources
  pgup/pgdn   Scroll the transcript
  esc         Back to Menu

Documents:
  j/k, ↑/↓    Navigate documents
  enter       Actions (delete)
  r           Reload
  esc         Back to Menu

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// ConversationID returns the chat view's active conversation.
func (a *App) ConversationID() string {
	return a.chatView.ConversationID()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	if a.documentsView != nil {
		a.documentsView.SetDimensions(width, height)
	}
}
