/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/config"
	"github.com/ssargent/bitwire/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bitwire",
		Short: "bitwire - Bitcoin P2P wire-format toolkit",
		Long: `bitwire encodes and decodes Bitcoin peer-to-peer message payloads
(peer addresses, inventory vectors, alerts, transactions and headers), records
raw messages into capture sessions and serves the same operations over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+" if present)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		newDecodeCmd(),
		newEncodeCmd(),
		newSchemasCmd(),
		newCaptureCmd(),
		newServeCmd(),
		newInitCmd(),
		newUpCmd(),
		newServiceCmd(),
	)
	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies flag overrides and configures
// the container. A missing default config file means built-in defaults; a
// missing explicit --config is an error.
func loadConfig(cmd *cobra.Command, args []string) error {
	if container == nil {
		return fmt.Errorf("dependency container not initialized")
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg := config.DefaultConfig()
	switch {
	case configPath != "":
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	case config.ConfigExists(config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	return container.Configure(cfg, cmd.ErrOrStderr())
}
