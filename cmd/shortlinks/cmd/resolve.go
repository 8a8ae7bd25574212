/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <code|short-url>",
	Short: "Resolve a short code using a running server",
	Long: `Ask a running shortlinks server for the URL behind a short code.
A full short URL is accepted too; its last path element is used as the code.

Examples:
  shortlinks resolve AAAAAAAA
  shortlinks resolve http://localhost:8080/AAAAAAAA`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		resp, err := client.Resolve(cmd.Context(), codeFromArg(args[0]))
		if err != nil {
			return fmt.Errorf("failed to resolve: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.LongURL)
		return nil
	},
}

// codeFromArg accepts either a bare code or a short url
func codeFromArg(arg string) string {
	arg = strings.TrimRight(arg, "/")
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		return arg[i+1:]
	}
	return arg
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addClientFlags(resolveCmd)
}
