/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/config"
)

const serviceName = "bitwire.service"

// Replaced in tests.
var (
	runCommand = func(cmd *cobra.Command, name string, args ...string) error {
		c := exec.CommandContext(cmd.Context(), name, args...)
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()
		return c.Run()
	}
	geteuid = os.Geteuid
)

func newServiceCmd() *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage bitwire as a systemd service",
		Long: `Install and control a systemd unit that runs "bitwire up" with a fixed
config file. The unit restarts on failure and may only write to the data and
config directories.`,
		// service subcommands manage their own config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}
			return nil
		},
	}

	serviceCmd.PersistentFlags().String("unit-dir", "/etc/systemd/system", "Directory for the systemd unit file")

	serviceCmd.AddCommand(
		newServiceInstallCmd(),
		newServiceUninstallCmd(),
		newSystemctlCmd("start", "Start the bitwire service"),
		newSystemctlCmd("stop", "Stop the bitwire service"),
		newSystemctlCmd("restart", "Restart the bitwire service"),
		newSystemctlCmd("status", "Show bitwire service status"),
		newServiceLogsCmd(),
	)
	return serviceCmd
}

func newServiceInstallCmd() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install bitwire as a systemd service",
		Long: `Write the systemd unit, creating a configuration with a generated API key
if the config path has none, then enable and start the service. Must run as root.

Examples:
  sudo bitwire service install
  sudo bitwire service install --config /etc/bitwire/config.yaml --data-dir /var/lib/bitwire --user bitwire`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot("install"); err != nil {
				return err
			}

			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}
			configPath, err := filepath.Abs(configPath)
			if err != nil {
				return err
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")

			var cfg *config.Config
			if config.ConfigExists(configPath) {
				if cfg, err = config.LoadConfig(configPath); err != nil {
					return err
				}
				cmd.Printf("Using existing config %s\n", configPath)
			} else {
				if cfg, err = config.BootstrapConfig(configPath, dataDir); err != nil {
					return err
				}
				cmd.Printf("Config written to %s\n", configPath)
			}

			changed := false
			if cmd.Flags().Changed("data-dir") && cfg.DataDir != dataDir {
				cfg.DataDir = dataDir
				changed = true
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
				changed = true
			}
			if cfg.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
				return err
			}
			if changed {
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := config.SaveConfig(cfg, configPath); err != nil {
					return err
				}
			}

			user, _ := cmd.Flags().GetString("user")
			binary, _ := cmd.Flags().GetString("binary")
			unitDir, _ := cmd.Flags().GetString("unit-dir")
			unitPath := filepath.Join(unitDir, serviceName)
			if err := writeSystemdUnit(unitPath, systemdUnit(cfg, configPath, user, binary)); err != nil {
				return err
			}
			cmd.Printf("Unit written to %s\n", unitPath)

			if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
				return fmt.Errorf("systemctl daemon-reload: %w", err)
			}
			if err := runCommand(cmd, "systemctl", "enable", serviceName); err != nil {
				return fmt.Errorf("systemctl enable: %w", err)
			}
			if start, _ := cmd.Flags().GetBool("start"); start {
				if err := runCommand(cmd, "systemctl", "start", serviceName); err != nil {
					return fmt.Errorf("systemctl start: %w", err)
				}
				cmd.Printf("Service started\n")
			}

			cmd.Printf("Service: %s\nData: %s\nListening on %s:%d\n", serviceName, cfg.DataDir, cfg.Server.Bind, cfg.Server.Port)
			cmd.Printf("Logs: journalctl -u %s -f\n", serviceName)
			return nil
		},
	}

	installCmd.Flags().String("user", "bitwire", "User and group the service runs as")
	installCmd.Flags().String("binary", "/usr/local/bin/bitwire", "Path of the bitwire binary in ExecStart")
	installCmd.Flags().Int("port", 9333, "Port for the service (saved to the config)")
	installCmd.Flags().Bool("start", true, "Start the service after installing")
	return installCmd
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Stop, disable and remove the bitwire service",
		Long: `Stop and disable the service and remove its unit file. Configuration and
capture data are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot("uninstall"); err != nil {
				return err
			}

			// Already stopped is fine.
			_ = runCommand(cmd, "systemctl", "stop", serviceName)
			if err := runCommand(cmd, "systemctl", "disable", serviceName); err != nil {
				cmd.Printf("Warning: could not disable service: %v\n", err)
			}

			unitDir, _ := cmd.Flags().GetString("unit-dir")
			unitPath := filepath.Join(unitDir, serviceName)
			if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove unit file: %w", err)
			}
			if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
				return fmt.Errorf("systemctl daemon-reload: %w", err)
			}

			cmd.Printf("Service uninstalled; config and data were not removed\n")
			return nil
		},
	}
}

func newSystemctlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, "systemctl", action, serviceName)
		},
	}
}

func newServiceLogsCmd() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show bitwire service logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journalArgs := []string{"-u", serviceName}
			if follow, _ := cmd.Flags().GetBool("follow"); follow {
				journalArgs = append(journalArgs, "-f")
			}
			if lines, _ := cmd.Flags().GetInt("lines"); lines > 0 {
				journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
			}
			return runCommand(cmd, "journalctl", journalArgs...)
		},
	}

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
	return logsCmd
}

func requireRoot(action string) error {
	if geteuid() != 0 {
		return fmt.Errorf("service %s requires root privileges (run with sudo)", action)
	}
	return nil
}

// systemdUnit renders the unit that runs "bitwire up" against configPath.
func systemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=bitwire Bitcoin wire-format service
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s up --config %s
Restart=on-failure
NoNewPrivileges=true
ProtectSystem=strict
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, filepath.Dir(configPath))
}

func writeSystemdUnit(unitPath, unit string) error {
	if err := os.WriteFile(unitPath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	return nil
}
