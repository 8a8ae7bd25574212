/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/shortlinks/pkg/api"
	"github.com/ssargent/shortlinks/pkg/config"
)

func addClientFlags(c *cobra.Command) {
	c.Flags().String("server", "", "Server base URL (default: derived from bind and port in config)")
	c.Flags().String("api-key", "", "API key (default: security.api_key from config)")
	c.Flags().Duration("timeout", 10*time.Second, "Request timeout")
}

// serverURL derives a reachable base url from the listen address
func serverURL(cfg *config.Config) string {
	host := cfg.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Port)
}

func newClient(cmd *cobra.Command) (*api.Client, error) {
	cfg, err := configFrom(cmd)
	if err != nil {
		return nil, err
	}

	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = serverURL(cfg)
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = cfg.Security.APIKey
	}

	var httpClient *http.Client
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		httpClient = &http.Client{Timeout: timeout}
	}
	return api.NewClient(server, apiKey, httpClient), nil
}
