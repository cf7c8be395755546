/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/api"
	"github.com/ssargent/bitwire/pkg/config"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP inspection service",
		Long: `Start the bitwire HTTP service. It decodes and encodes payloads, records
messages into a capture session and answers inventory lookups. Prometheus
metrics are served on /metrics.

With server.api_key set to "auto" a key is generated for this run and logged.
An empty key disables authentication on the capture endpoint.

Examples:
  bitwire serve
  bitwire serve --port 9333 --bind 0.0.0.0
  bitwire serve --no-capture`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	addServeFlags(serveCmd)
	return serveCmd
}

// runServe starts the server from the configured container and the serve flags.
func runServe(cmd *cobra.Command) error {
	logger := container.Logger()
	cfg := container.ServerConfig()

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cfg.APIKey == "auto" {
		key, err := config.GenerateSecureKey(32)
		if err != nil {
			return err
		}
		cfg.APIKey = key
		logger.Info().Str("api_key", key).Msg("generated API key for this run")
	}

	deps := api.Dependencies{
		Registry: container.Registry(),
		Logger:   logger,
	}

	if noCapture, _ := cmd.Flags().GetBool("no-capture"); !noCapture {
		sessionID, _ := cmd.Flags().GetString("session")
		recording, err := container.OpenRecording(sessionID)
		if err != nil {
			return err
		}
		defer func() {
			if err := recording.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close capture session")
			}
		}()
		deps.Recorder = recording
		deps.Index = recording.Index
		logger.Info().Str("session", recording.Session().ID.String()).Msg("capture session open")
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("starting server")
	return container.GetServerFactory().CreateServerStarter().StartServer(cmd.Context(), deps, cfg)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().String("bind", "", "Address to bind (overrides config)")
	cmd.Flags().String("session", "", "Resume an existing capture session")
	cmd.Flags().Bool("no-capture", false, "Serve decode and encode only, without a capture session")
}
