/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ssargent/shortlinks/pkg/shortener"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine statistics of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		stats, err := client.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}
		renderStats(cmd.OutOrStdout(), *stats)
		return nil
	},
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

// renderStats prints an engine snapshot as a two column table
func renderStats(w io.Writer, stats shortener.Stats) {
	watermark := "-"
	if !stats.Forward.Empty {
		watermark = humanize.Comma(int64(stats.Forward.HighWatermark))
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Links", humanize.Comma(int64(stats.Links))},
		{"Ids allocated", humanize.Comma(int64(stats.Allocated))},
		{"Ids remaining", humanize.Comma(int64(stats.Remaining))},
		{"Orphaned ids", humanize.Comma(int64(stats.Orphaned))},
		{"High watermark", watermark},
		{"Segments", fmt.Sprintf("%d of %d (%s slots each)",
			stats.Forward.SegmentsMaterialized, stats.Forward.DirectoryLength,
			humanize.Comma(int64(stats.Forward.SegmentSize)))},
		{"Reverse shards", fmt.Sprintf("%d (largest %s)",
			stats.Reverse.Shards, humanize.Comma(int64(stats.Reverse.LargestShard)))},
		{"Captured", humanize.Time(stats.CapturedAt)},
	})
	fmt.Fprintln(w, tbl.Render())
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addClientFlags(statsCmd)
}
