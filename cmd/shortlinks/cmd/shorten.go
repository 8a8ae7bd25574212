/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// shortenCmd represents the shorten command
var shortenCmd = &cobra.Command{
	Use:   "shorten <url>",
	Short: "Shorten a URL using a running server",
	Long: `Ask a running shortlinks server for the short code of a URL.

Shortening the same URL twice returns the same code.

Examples:
  shortlinks shorten https://example.com/some/long/path
  shortlinks shorten --server http://localhost:9000 --api-key k https://go.dev`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		resp, err := client.Shorten(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to shorten: %w", err)
		}

		codeOnly, _ := cmd.Flags().GetBool("code-only")
		if codeOnly {
			fmt.Fprintln(cmd.OutOrStdout(), resp.ShortCode)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.ShortURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shortenCmd)
	addClientFlags(shortenCmd)
	shortenCmd.Flags().Bool("code-only", false, "Print only the short code")
}
