/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/shortlinks/pkg/config"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the shortlinks configuration file",
}

// configInitCmd writes a bootstrap configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with a generated API key",
	Long: `Create a configuration file with default settings and a freshly
generated API key. The file is written with 0600 permissions.

Examples:
  shortlinks config init
  shortlinks config init --config ./shortlinks.yaml --force --print-key`,
	Args: cobra.NoArgs,
	// the file usually does not exist yet, so skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(configPath) && !force {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}

		cfg, err := config.BootstrapConfig(configPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration created at %s\n", configPath)
		if printKey {
			fmt.Fprintf(cmd.OutOrStdout(), "API key: %s\n", cfg.Security.APIKey)
		}
		return nil
	},
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and
SHORTLINKS_* environment variables are applied. The API key is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		masked := *cfg
		if masked.Security.APIKey != "" {
			masked.Security.APIKey = "********"
		}

		data, err := yaml.Marshal(&masked)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configInitCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
