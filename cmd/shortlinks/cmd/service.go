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

	"github.com/ssargent/shortlinks/pkg/config"
)

const (
	serviceName = "shortlinks.service"
	unitPath    = "/etc/systemd/system/" + serviceName
)

// runCommand runs a system command; replaced in tests
var runCommand = func(command string, args ...string) error {
	c := exec.Command(command, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage shortlinks as a systemd service",
	Long: `Manage shortlinks as a systemd service for production deployments.

The unit runs 'shortlinks serve' with a read-only filesystem view and restarts
on failure. Links live in memory, so a restart starts from an empty store.`,
	// install may create the config file, so do not require it up front
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

// unitServiceCmd prints the unit without installing it
var unitServiceCmd = &cobra.Command{
	Use:   "unit",
	Short: "Print the systemd unit file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, user, binary := serviceParams(cmd)
		fmt.Fprint(cmd.OutOrStdout(), renderUnit(configPath, user, binary))
		return nil
	},
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shortlinks as a systemd service",
	Long: `Install shortlinks as a systemd service.

This will:
- Create a configuration with a generated API key if none exists
- Write /etc/systemd/system/shortlinks.service
- Enable and optionally start the service

Examples:
  sudo shortlinks service install
  sudo shortlinks service install --config /etc/shortlinks/config.yaml --user shortlinks`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("service install requires root privileges (run with sudo)")
		}

		configPath, user, binary := serviceParams(cmd)
		startNow, _ := cmd.Flags().GetBool("start")

		if !config.ConfigExists(configPath) {
			if _, err := config.BootstrapConfig(configPath); err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			cmd.Printf("Created new configuration at %s\n", configPath)
		}

		if err := os.WriteFile(unitPath, []byte(renderUnit(configPath, user, binary)), 0600); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		if err := runCommand("systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		if err := runCommand("systemctl", "enable", serviceName); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
		if startNow {
			if err := runCommand("systemctl", "start", serviceName); err != nil {
				return fmt.Errorf("failed to start service: %w", err)
			}
		}

		cmd.Printf("Service %s installed (config %s)\n", serviceName, configPath)
		cmd.Printf("To view logs: sudo journalctl -u %s -f\n", serviceName)
		return nil
	},
}

// uninstallServiceCmd represents the service uninstall command
var uninstallServiceCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the shortlinks service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("service uninstall requires root privileges (run with sudo)")
		}

		_ = runCommand("systemctl", "stop", serviceName)
		if err := runCommand("systemctl", "disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}
		if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runCommand("systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}

		cmd.Printf("Service %s uninstalled; configuration was kept\n", serviceName)
		return nil
	},
}

// systemctlCmd builds a passthrough subcommand such as start or stop
func systemctlCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("Run systemctl %s on the shortlinks service", action),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runCommand("systemctl", action, serviceName); err != nil {
				return fmt.Errorf("systemctl %s failed: %w", action, err)
			}
			return nil
		},
	}
}

// logsServiceCmd represents the service logs command
var logsServiceCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show shortlinks service logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")

		journalArgs := []string{"-u", serviceName}
		if follow {
			journalArgs = append(journalArgs, "-f")
		}
		if lines > 0 {
			journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
		}
		return runCommand("journalctl", journalArgs...)
	},
}

func serviceParams(cmd *cobra.Command) (configPath, user, binary string) {
	configPath, _ = cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = "/etc/shortlinks/config.yaml"
	}
	user, _ = cmd.Flags().GetString("user")
	binary, _ = cmd.Flags().GetString("binary")
	return configPath, user, binary
}

// renderUnit returns the systemd unit for running the server
func renderUnit(configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=shortlinks URL shortener
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ProtectSystem=strict
ProtectHome=true
ReadOnlyPaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, filepath.Dir(configPath))
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(unitServiceCmd)
	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(uninstallServiceCmd)
	serviceCmd.AddCommand(logsServiceCmd)
	for _, action := range []string{"start", "stop", "restart", "status"} {
		serviceCmd.AddCommand(systemctlCmd(action))
	}

	for _, c := range []*cobra.Command{unitServiceCmd, installServiceCmd} {
		c.Flags().String("user", "shortlinks", "User to run the service as")
		c.Flags().String("binary", "/usr/local/bin/shortlinks", "Path to the shortlinks binary")
	}
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsServiceCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsServiceCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}
