package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.ChatInput
	transcript *transcript.Transcript
	statusbar  *status.Bar
	help       help.Model

	conversationID string
	// rated holds record IDs that already received feedback.
	rated    map[string]bool
	waiting  bool
	showHelp bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		help:       help.New(),
		rated:      make(map[string]bool),
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("helpdesk"),
		a.input.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.handleAnswer(msg)
		return a, nil

	case messages.FeedbackSubmitted:
		a.handleFeedback(msg)
		return a, nil

	case messages.ErrorOccurred:
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.showHelp = !a.showHelp
		a.layout()
		return a, nil
	case key.Matches(msg, a.keymap.ScrollUp):
		a.transcript.ScrollUp()
		return a, nil
	case key.Matches(msg, a.keymap.ScrollDown):
		a.transcript.ScrollDown()
		return a, nil
	case key.Matches(msg, a.keymap.ThumbsUp):
		return a, a.rate(domain.RatingThumbsUp)
	case key.Matches(msg, a.keymap.ThumbsDown):
		return a, a.rate(domain.RatingThumbsDown)
	case key.Matches(msg, a.keymap.NewConversation):
		if a.waiting {
			return a, nil
		}
		a.conversationID = ""
		a.transcript.Clear()
		a.statusbar.Clear()
		return a, nil
	case key.Matches(msg, a.keymap.Send):
		return a, a.send()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// send submits the typed question. One question is in flight at a time.
func (a *App) send() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.waiting {
		return nil
	}

	req := domain.ChatRequest{
		Message:        question,
		ConversationID: a.conversationID,
		History:        a.transcript.History(),
	}
	a.input.Reset()
	a.transcript.Ask(question)
	a.waiting = true
	a.statusbar.SetState(status.StateThinking)
	a.statusbar.SetMessage("")

	answer := a.ports.Answer
	ctx := a.ctx
	return func() tea.Msg {
		resp, err := answer.Answer(ctx, req)
		return messages.AnswerReceived{Question: question, Response: resp, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReceived) {
	a.waiting = false
	a.transcript.Resolve(msg.Response, msg.Err)
	if msg.Err != nil {
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return
	}

	a.conversationID = msg.Response.ConversationID
	a.statusbar.SetConversation(a.conversationID)
	a.statusbar.SetMessage("")
	if a.ports.Feedback != nil && msg.Response.ConversationRecordID != "" {
		a.statusbar.SetState(status.StateRateable)
		return
	}
	a.statusbar.SetState(status.StateReady)
}

// rate records feedback on the newest answer, once per answer.
func (a *App) rate(rating domain.Rating) tea.Cmd {
	if a.ports.Feedback == nil {
		return errCmd(ErrNoFeedbackService)
	}
	recordID := a.transcript.LastRecordID()
	if recordID == "" || a.rated[recordID] {
		return errCmd(ErrNothingToRate)
	}
	a.rated[recordID] = true

	feedback := a.ports.Feedback
	ctx := a.ctx
	return func() tea.Msg {
		err := feedback.Submit(ctx, domain.Feedback{RecordID: recordID, Rating: rating})
		return messages.FeedbackSubmitted{RecordID: recordID, Rating: rating, Err: err}
	}
}

func (a *App) handleFeedback(msg messages.FeedbackSubmitted) {
	if msg.Err != nil {
		delete(a.rated, msg.RecordID)
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage("feedback: " + msg.Err.Error())
		return
	}
	a.transcript.Rate(msg.RecordID, msg.Rating)
	a.statusbar.SetState(status.StateReady)
	a.statusbar.SetMessage("Thanks for the feedback")
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return messages.ErrorOccurred{Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	parts := []string{
		a.styles.Title.Render("IT Helpdesk"),
		a.transcript.View(),
		a.styles.InputField.Width(max(a.width-2, 10)).Render(a.input.View()),
	}
	if a.showHelp {
		parts = append(parts, a.help.FullHelpView(a.keymap.FullHelp()))
	}
	parts = append(parts, a.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.layout()
}

// layout sizes the transcript to the space left by the fixed rows:
// title, input box (3 rows), status bar, and optional help.
func (a *App) layout() {
	reserved := 5
	if a.showHelp {
		reserved += len(a.keymap.FullHelp()[0])
	}
	a.input.SetWidth(a.width)
	a.statusbar.SetWidth(a.width)
	a.help.Width = a.width
	a.transcript.SetSize(a.width, a.height-reserved)
}

// ConversationID returns the current conversation.
func (a *App) ConversationID() string {
	return a.conversationID
}

// Waiting reports whether an answer is in flight.
func (a *App) Waiting() bool {
	return a.waiting
}

// Turns returns the transcript turns.
func (a *App) Turns() []transcript.Turn {
	return a.transcript.Turns()
}

// Status returns the status bar, for tests.
func (a *App) Status() *status.Bar {
	return a.statusbar
}
