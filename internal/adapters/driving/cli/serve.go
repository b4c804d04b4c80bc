package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the chat widget.

Endpoints:
  GET  /api/health
  POST /api/chat
  POST /api/feedback`,
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.ServerAddr
		}
	}
	if addr == "" {
		addr = ":8000"
	}

	server, err := api.NewServer(api.Ports{
		Answer:   answerService,
		Feedback: feedbackService,
		Health:   healthInfo,
	}, appLogger)
	if err != nil {
		return err
	}

	watchPrompts(cmd.Context())
	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
