package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/shortlinks/pkg/config"
	"github.com/ssargent/shortlinks/pkg/di"
	"github.com/ssargent/shortlinks/pkg/shortener"
)

func TestRunBench(t *testing.T) {
	svc, err := shortener.New(shortener.Config{SegmentShift: 6})
	require.NoError(t, err)

	opts := benchOptions{Workers: 8, URLs: 200, Rounds: 2}
	result, err := runBench(context.Background(), svc, opts)
	require.NoError(t, err)

	assert.Equal(t, int64(8*200*2), result.Shortens)
	assert.Equal(t, result.Shortens, result.Resolves)
	assert.Equal(t, 200, result.Stats.Links)
	// every allocation either won or was orphaned
	assert.Equal(t, result.Stats.Allocated, uint64(result.Stats.Links)+result.Stats.Orphaned)
	assert.GreaterOrEqual(t, result.Stats.Forward.SegmentsMaterialized, 4)
}

func TestRunBench_InvalidOptions(t *testing.T) {
	svc, err := shortener.New(shortener.Config{})
	require.NoError(t, err)

	_, err = runBench(context.Background(), svc, benchOptions{Workers: 0, URLs: 1, Rounds: 1})
	assert.Error(t, err)
}

func TestRunBench_CapacityExceeded(t *testing.T) {
	svc, err := shortener.New(shortener.Config{IDLimit: 9})
	require.NoError(t, err)

	_, err = runBench(context.Background(), svc, benchOptions{Workers: 2, URLs: 50, Rounds: 1})
	assert.Error(t, err)
}

func TestRunBench_Cancelled(t *testing.T) {
	svc, err := shortener.New(shortener.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runBench(ctx, svc, benchOptions{Workers: 2, URLs: 10, Rounds: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBenchCommand(t *testing.T) {
	SetContainer(di.NewContainer())
	path := writeConfig(t, config.DefaultConfig())

	out, err := executeCommand(t, "bench", "--config", path, "--workers", "4", "--urls", "100", "--rounds", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "WORKERS")
	assert.Contains(t, out, "Links")
}

func TestRenderBench(t *testing.T) {
	var buf bytes.Buffer
	renderBench(&buf, benchOptions{Workers: 2, URLs: 1500, Rounds: 1}, &benchResult{
		Shortens: 3000,
		Resolves: 3000,
		Elapsed:  1e9,
	})
	assert.Contains(t, buf.String(), "1,500")
	assert.Contains(t, buf.String(), "6,000")
}
