package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the helpdesk in a terminal UI",
	Long: `Launch an interactive chat with the helpdesk.

Controls:
  Enter   - Send question
  Ctrl+U  - Rate last answer helpful
  Ctrl+D  - Rate last answer not helpful
  Ctrl+N  - Start a new conversation
  PgUp/Dn - Scroll
  F1      - Toggle help
  Esc     - Quit`,
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runChat,
}

// runProgram runs the bubbletea program, replaced in tests.
var runProgram = func(model tea.Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	app, err := tui.NewApp(&tui.Ports{Answer: answerService, Feedback: feedbackService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
