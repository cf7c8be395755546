/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/config"
)

func newUpCmd() *cobra.Command {
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap a configuration if needed, then start the server",
		Long: `Create a configuration file with a generated API key when none exists at
the config path, create the data directory, then start the HTTP service exactly
as serve does. This is the command the systemd unit runs.

Examples:
  bitwire up
  bitwire up --data-dir /var/lib/bitwire --port 9333
  bitwire up --config /etc/bitwire/config.yaml --print-key`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}
			if err := bootstrapIfMissing(cmd); err != nil {
				return err
			}
			return loadConfig(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(container.Config().DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			return runServe(cmd)
		},
	}

	addServeFlags(upCmd)
	upCmd.Flags().Bool("print-key", false, "Print the API key when a configuration is generated")
	return upCmd
}

// bootstrapIfMissing writes a fresh config at the --config path (or the
// default path) unless one is already there, and points --config at it.
func bootstrapIfMissing(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if config.ConfigExists(configPath) {
		return cmd.Flags().Set("config", configPath)
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	cfg, err := config.BootstrapConfig(configPath, dataDir)
	if err != nil {
		return err
	}

	cmd.Printf("First run: config written to %s\n", configPath)
	if printKey, _ := cmd.Flags().GetBool("print-key"); printKey {
		cmd.Printf("API key: %s\n", cfg.Server.APIKey)
	}
	return cmd.Flags().Set("config", configPath)
}
