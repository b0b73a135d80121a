// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driving"
)

// sourcesHeight is the number of rows reserved for the source list.
const sourcesHeight = 8

// exchange is one question in the transcript and, once received, its answer.
type exchange struct {
	question   string
	answer     string
	sources    []domain.Source
	confidence float64
	hasContext bool
	err        error
	pending    bool
}

// View is the chat view: a scrolling transcript, the sources cited by the
// latest answer, a question input and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	spinner    spinner.Model
	sources    *list.SourceList
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context

	conversationID string
	exchanges      []exchange

	width      int
	height     int
	ready      bool
	err        error
	thinking   bool
	focusInput bool // true = typing a question, false = browsing sources
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		transcript:  viewport.New(80, 10),
		spinner:     sp,
		sources:     list.NewSourceList(s),
		statusbar:   status.NewBar(s, km),
		chatService: chatService,
		ctx:         context.Background(),
		width:       80,
		height:      24,
		focusInput:  true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ConversationReset:
		v.Reset()
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.setError(msg.Err)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refreshTranscript()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(keyStr, v.keymap.NewConversation):
		return v, func() tea.Msg {
			return messages.ConversationReset{}
		}

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Sources):
		v.toggleFocus()
		return v, nil
	}

	if !v.focusInput {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	if keymap.Matches(keyStr, v.keymap.Send) {
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless one is already in flight.
func (v *View) submit() tea.Cmd {
	if v.thinking {
		return nil
	}
	question := v.input.Submit()
	if question == "" {
		return nil
	}

	v.err = nil
	v.thinking = true
	v.exchanges = append(v.exchanges, exchange{question: question, pending: true})
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.refreshTranscript()

	return tea.Batch(v.ask(question, v.conversationID), v.spinner.Tick)
}

// ask calls the chat service off the update loop.
func (v *View) ask(question, conversationID string) tea.Cmd {
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoChatService}
		}
		result, err := v.chatService.Ask(v.ctx, question, conversationID)
		return messages.AnswerReceived{Question: question, Result: result, Err: err}
	}
}

// handleAnswer settles the pending exchange with the received answer.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false

	idx := v.pendingIndex()
	if idx < 0 {
		v.exchanges = append(v.exchanges, exchange{question: msg.Question})
		idx = len(v.exchanges) - 1
	}
	ex := &v.exchanges[idx]
	ex.pending = false

	if msg.Err != nil {
		ex.err = msg.Err
		v.setError(msg.Err)
		v.refreshTranscript()
		return
	}
	if msg.Result == nil {
		ex.err = domain.ErrGeneration
		v.setError(ex.err)
		v.refreshTranscript()
		return
	}

	ex.answer = msg.Result.Answer
	ex.sources = msg.Result.Sources
	ex.confidence = msg.Result.Confidence
	ex.hasContext = msg.Result.Metadata.HasContext

	v.err = nil
	v.conversationID = msg.Result.ConversationID
	v.sources.SetSources(msg.Result.Sources)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetMessage("")
	v.statusbar.SetSourceCount(len(msg.Result.Sources))
	v.statusbar.SetConversationID(v.conversationID)
	v.refreshTranscript()
}

func (v *View) pendingIndex() int {
	for i := len(v.exchanges) - 1; i >= 0; i-- {
		if v.exchanges[i].pending {
			return i
		}
	}
	return -1
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	if err != nil {
		v.statusbar.SetMessage(err.Error())
	}
}

func (v *View) toggleFocus() {
	v.focusInput = !v.focusInput
	if v.focusInput {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

// refreshTranscript re-renders the exchanges into the viewport and keeps
// the latest one in view.
func (v *View) refreshTranscript() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("Ask a question about your uploaded documents.")
	}

	wrap := lipgloss.NewStyle().Width(v.width - 4)
	blocks := make([]string, 0, len(v.exchanges))
	for i := range v.exchanges {
		ex := &v.exchanges[i]
		lines := []string{v.styles.Question.Render("You: " + ex.question)}

		switch {
		case ex.pending:
			lines = append(lines, v.styles.Answer.Render(v.spinner.View()+" thinking..."))
		case ex.err != nil:
			lines = append(lines, v.styles.Error.Render("  Error: "+ex.err.Error()))
		default:
			lines = append(lines, v.styles.Answer.Render(wrap.Render(ex.answer)))
			lines = append(lines, v.renderFooter(ex))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// renderFooter shows the confidence and the citations under an answer.
func (v *View) renderFooter(ex *exchange) string {
	grounding := "no matching documents"
	if ex.hasContext {
		grounding = fmt.Sprintf("%d sources", len(ex.sources))
	}
	lines := []string{
		v.styles.Citation.Render(
			v.styles.Confidence(ex.confidence).Render(fmt.Sprintf("confidence %.2f", ex.confidence)) +
				" · " + grounding,
		),
	}
	for i := range ex.sources {
		lines = append(lines, v.styles.Citation.Render(fmt.Sprintf("[%d] %s", i+1, list.Citation(&ex.sources[i]))))
	}
	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("CareSync"), "")
	sections = append(sections, v.transcript.View(), "")

	if !v.sources.IsEmpty() {
		sections = append(sections, v.sources.View(), "")
	}

	sections = append(sections, v.input.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Header, input and status bar take six rows
	transcriptHeight := height - sourcesHeight - 6
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.Width = width
	v.transcript.Height = transcriptHeight

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, sourcesHeight)
	v.statusbar.SetWidth(width)
	v.refreshTranscript()
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the text currently typed.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the typed question.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// ConversationID returns the active conversation, empty before the first answer.
func (v *View) ConversationID() string {
	return v.conversationID
}

// Sources returns the sources cited by the latest answer.
func (v *View) Sources() []domain.Source {
	return v.sources.Sources()
}

// Thinking returns whether a question is awaiting its answer.
func (v *View) Thinking() bool {
	return v.thinking
}

// Transcript returns the rendered exchanges.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Reset starts a new conversation and clears the transcript.
func (v *View) Reset() {
	v.conversationID = ""
	v.exchanges = nil
	v.thinking = false
	v.err = nil
	v.focusInput = true
	v.input.Focus()
	v.input.Reset()
	v.sources.SetSources(nil)
	v.statusbar.Clear()
	v.refreshTranscript()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
