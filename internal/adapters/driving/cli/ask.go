package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the helpdesk a question",
	Long: `Ask a single question, or start an interactive session when no question
is given. Interactive sessions keep one conversation and send the previous
turns as history.

Examples:
  helpdesk ask "How do I reset my VPN password?"
  helpdesk ask --json "Printer on floor 3 is offline"
  helpdesk ask`,
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "print the full response as JSON")
	askCmd.Flags().String("conversation", "", "continue an existing conversation")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	conversationID, _ := cmd.Flags().GetString("conversation")

	if len(args) > 0 {
		req := domain.ChatRequest{Message: strings.Join(args, " "), ConversationID: conversationID}
		resp, err := answerService.Answer(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		return printResponse(cmd.OutOrStdout(), resp, asJSON)
	}

	return askInteractive(cmd, conversationID, asJSON)
}

func askInteractive(cmd *cobra.Command, conversationID string, asJSON bool) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var history []domain.ChatMessage

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return nil
		}

		resp, err := answerService.Answer(cmd.Context(), domain.ChatRequest{
			Message:        message,
			ConversationID: conversationID,
			History:        history,
		})
		if err != nil {
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		conversationID = resp.ConversationID
		history = append(history,
			domain.ChatMessage{Role: domain.RoleUser, Content: message},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: resp.Response},
		)
		if err := printResponse(out, resp, asJSON); err != nil {
			return err
		}
	}
}

func printResponse(out io.Writer, resp *domain.ChatResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(out, resp.Response)
	fmt.Fprintln(out)
	if resp.ConfidenceScore != nil {
		fmt.Fprintf(out, "Confidence: %s (%.2f)\n", resp.Confidence, *resp.ConfidenceScore)
	} else {
		fmt.Fprintf(out, "Confidence: %s\n", resp.Confidence)
	}
	if resp.RequiresEscalation {
		fmt.Fprintln(out, "Escalation: required")
	}
	for i, src := range resp.Sources {
		title := src.Title
		if src.SectionTitle != "" {
			title += " > " + src.SectionTitle
		}
		fmt.Fprintf(out, "  [%d] %s", i+1, title)
		if src.URL != "" {
			fmt.Fprintf(out, " (%s)", src.URL)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Conversation: %s\n", resp.ConversationID)
	if resp.ConversationRecordID != "" {
		fmt.Fprintf(out, "Record: %s\n", resp.ConversationRecordID)
	}
	return nil
}
