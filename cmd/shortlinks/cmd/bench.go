/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/shortlinks/pkg/shortener"
)

type benchOptions struct {
	Workers int
	URLs    int
	Rounds  int
}

type benchResult struct {
	Shortens int64
	Resolves int64
	Elapsed  time.Duration
	Stats    shortener.Stats
}

// benchCmd represents the bench command
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a concurrent load test against an in-process engine",
	Long: `Run concurrent shorten and resolve calls against an in-process engine
built from the current configuration.

Every worker walks the same url set from a different offset, so most urls are
shortened concurrently by several workers. The run fails if a url ever maps to
two codes or a code does not resolve back to its url.

Examples:
  shortlinks bench
  shortlinks bench --workers 16 --urls 100000 --rounds 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		var opts benchOptions
		opts.Workers, _ = cmd.Flags().GetInt("workers")
		opts.URLs, _ = cmd.Flags().GetInt("urls")
		opts.Rounds, _ = cmd.Flags().GetInt("rounds")

		svc, err := container.GetServiceFactory().CreateService(cfg, loggerFrom(cmd), nil)
		if err != nil {
			return fmt.Errorf("failed to create shortener: %w", err)
		}

		result, err := runBench(cmd.Context(), svc, opts)
		if err != nil {
			return fmt.Errorf("bench failed: %w", err)
		}

		renderBench(cmd.OutOrStdout(), opts, result)
		renderStats(cmd.OutOrStdout(), result.Stats)
		return nil
	},
}

func runBench(ctx context.Context, svc *shortener.Service, opts benchOptions) (*benchResult, error) {
	if opts.Workers <= 0 || opts.URLs <= 0 || opts.Rounds <= 0 {
		return nil, fmt.Errorf("workers, urls and rounds must be positive")
	}

	urls := make([]string, opts.URLs)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://bench.example/%d", i)
	}

	var (
		codes    sync.Map
		shortens atomic.Int64
		resolves atomic.Int64
	)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		offset := w * opts.URLs / opts.Workers
		g.Go(func() error {
			for r := 0; r < opts.Rounds; r++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := range urls {
					u := urls[(i+offset)%len(urls)]

					code, err := svc.Shorten(u)
					if err != nil {
						return fmt.Errorf("shorten %s: %w", u, err)
					}
					shortens.Add(1)

					if first, loaded := codes.LoadOrStore(u, code); loaded && first.(string) != code {
						return fmt.Errorf("%s mapped to both %s and %s", u, first, code)
					}

					got, ok := svc.Resolve(code)
					resolves.Add(1)
					if !ok || got != u {
						return fmt.Errorf("%s resolved to %q, want %s", code, got, u)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &benchResult{
		Shortens: shortens.Load(),
		Resolves: resolves.Load(),
		Elapsed:  time.Since(start),
		Stats:    svc.Stats(),
	}, nil
}

func renderBench(w io.Writer, opts benchOptions, result *benchResult) {
	ops := result.Shortens + result.Resolves
	rate := float64(ops) / result.Elapsed.Seconds()

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Workers", "Urls", "Rounds", "Shortens", "Resolves", "Elapsed", "Ops/s"})
	tbl.AppendRow(table.Row{
		opts.Workers,
		humanize.Comma(int64(opts.URLs)),
		opts.Rounds,
		humanize.Comma(result.Shortens),
		humanize.Comma(result.Resolves),
		result.Elapsed.Round(time.Millisecond),
		humanize.Comma(int64(rate)),
	})
	fmt.Fprintln(w, tbl.Render())
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().Int("workers", runtime.NumCPU(), "Concurrent workers")
	benchCmd.Flags().Int("urls", 10000, "Distinct urls per round")
	benchCmd.Flags().Int("rounds", 2, "Passes over the url set per worker")
}
