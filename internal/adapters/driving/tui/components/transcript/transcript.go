// Package transcript renders the scrolling chat history.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// Turn is one question and, once it arrives, its answer.
type Turn struct {
	Question string
	Response *domain.ChatResponse
	Err      error
	Rating   domain.Rating
}

// Pending reports whether the answer has not arrived yet.
func (t Turn) Pending() bool {
	return t.Response == nil && t.Err == nil
}

// Transcript is a scrollable list of turns.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	turns    []Turn
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{styles: s, viewport: viewport.New(80, 20)}
	t.refresh()
	return t
}

// Update forwards scroll messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetSize resizes the viewport and re-wraps the content.
func (t *Transcript) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Ask appends a pending turn.
func (t *Transcript) Ask(question string) {
	t.turns = append(t.turns, Turn{Question: question})
	t.refresh()
}

// Resolve fills in the last pending turn.
func (t *Transcript) Resolve(resp *domain.ChatResponse, err error) {
	if n := len(t.turns); n > 0 && t.turns[n-1].Pending() {
		t.turns[n-1].Response = resp
		t.turns[n-1].Err = err
	}
	t.refresh()
}

// Rate marks the turn holding recordID with rating.
func (t *Transcript) Rate(recordID string, rating domain.Rating) {
	for i := range t.turns {
		if r := t.turns[i].Response; r != nil && r.ConversationRecordID == recordID {
			t.turns[i].Rating = rating
		}
	}
	t.refresh()
}

// Turns returns the recorded turns.
func (t *Transcript) Turns() []Turn {
	return t.turns
}

// LastRecordID returns the record ID of the newest answered turn, if any.
func (t *Transcript) LastRecordID() string {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if r := t.turns[i].Response; r != nil {
			return r.ConversationRecordID
		}
	}
	return ""
}

// History returns the answered turns as chat messages, oldest first.
func (t *Transcript) History() []domain.ChatMessage {
	var history []domain.ChatMessage
	for _, turn := range t.turns {
		if turn.Response == nil {
			continue
		}
		history = append(history,
			domain.ChatMessage{Role: domain.RoleUser, Content: turn.Question},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: turn.Response.Response},
		)
	}
	return history
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.turns = nil
	t.refresh()
}

// ScrollUp and ScrollDown move by half a page.
func (t *Transcript) ScrollUp() {
	t.viewport.HalfPageUp()
}

func (t *Transcript) ScrollDown() {
	t.viewport.HalfPageDown()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	if len(t.turns) == 0 {
		return t.styles.Muted.Render("Ask a question about software, hardware, accounts or other IT topics.")
	}

	wrap := t.styles.Normal.Width(max(t.viewport.Width-2, 10))
	var b strings.Builder
	for i, turn := range t.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.styles.User.Render("You: "))
		b.WriteString(wrap.Render(turn.Question))
		b.WriteString("\n")

		switch {
		case turn.Pending():
			b.WriteString(t.styles.Muted.Render("Helpdesk is thinking..."))
			b.WriteString("\n")
		case turn.Err != nil:
			b.WriteString(t.styles.Error.Render("Error: " + turn.Err.Error()))
			b.WriteString("\n")
		default:
			t.renderAnswer(&b, turn, wrap.Render)
		}
	}
	return b.String()
}

func (t *Transcript) renderAnswer(b *strings.Builder, turn Turn, wrap func(...string) string) {
	resp := turn.Response
	b.WriteString(t.styles.Assistant.Render("Helpdesk: "))
	b.WriteString(wrap(resp.Response))
	b.WriteString("\n")

	meta := t.styles.Confidence(resp.Confidence).Render("confidence " + resp.Confidence)
	if resp.ConfidenceScore != nil {
		meta += t.styles.Muted.Render(fmt.Sprintf(" (%.2f)", *resp.ConfidenceScore))
	}
	if resp.RequiresEscalation {
		meta += "  " + t.styles.Escalation.Render("escalated to IT")
	}
	switch turn.Rating {
	case domain.RatingThumbsUp:
		meta += t.styles.Success.Render("  rated helpful")
	case domain.RatingThumbsDown:
		meta += t.styles.Error.Render("  rated not helpful")
	}
	b.WriteString("  " + meta + "\n")

	for i, src := range resp.Sources {
		title := src.Title
		if src.SectionTitle != "" {
			title += " > " + src.SectionTitle
		}
		line := fmt.Sprintf("  [%d] %s", i+1, title)
		if src.URL != "" {
			line += " " + src.URL
		}
		b.WriteString(t.styles.Muted.Render(line))
		b.WriteString("\n")
	}
}
