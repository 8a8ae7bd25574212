/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the shortlinks REST API server.

Flags override the configuration file, which in turn can be overridden by
SHORTLINKS_* environment variables.

Examples:
  shortlinks serve
  shortlinks serve --port 9000 --api-key mysecretkey
  shortlinks serve --config ./shortlinks.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL, _ = cmd.Flags().GetString("base-url")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		logger := loggerFrom(cmd)
		if cfg.Security.APIKey == "" {
			logger.Warn("no api key configured, /api/v1 is open")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		starter := container.GetServerFactory().CreateServerStarter()
		if err := starter.StartServer(ctx, cfg, logger); err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key required on /api/v1 (empty disables auth)")
	serveCmd.Flags().String("base-url", "", "Public base URL used to build short urls")
}
