package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/irpass/internal/ir"
	"github.com/born-ml/irpass/internal/passes"
	"github.com/born-ml/irpass/internal/rewrite"
)

func TestParse(t *testing.T) {
	opts, err := Parse([]byte(`
disable:
  - "F.conv3d/onnx_autopad*"
max_rewrites: 500
workers: 4
log_level: DEBUG
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"F.conv3d/onnx_autopad*"}, opts.Disable)
	assert.Equal(t, 500, opts.MaxRewrites)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, slog.LevelDebug, opts.Level())
}

func TestParse_Defaults(t *testing.T) {
	for _, data := range []string{"", "   \n", "workers: 0\n"} {
		opts, err := Parse([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, Default(), *opts)
		assert.Equal(t, slog.LevelInfo, opts.Level())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown key", data: "max_sweeps: 3\n"},
		{name: "negative limit", data: "max_rewrites: -1\n"},
		{name: "negative workers", data: "workers: -2\n"},
		{name: "bad level", data: "log_level: verbose\n"},
		{name: "bad glob", data: "disable: [\"F.conv3d/[\"]\n"},
		{name: "empty glob", data: "disable: [\"\"]\n"},
		{name: "wrong type", data: "workers: many\n"},
		{name: "two documents", data: "workers: 1\n---\nworkers: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, opts)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irpass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, opts.Level())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	opts := Default()
	opts.LogLevel = "error"

	var buf bytes.Buffer
	logger := opts.Logger(&buf)
	logger.Info("hidden")
	logger.Error("shown", slog.String("pass", "F.conv3d"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "pass=F.conv3d")
}

func TestApply(t *testing.T) {
	reg, err := passes.Default()
	require.NoError(t, err)

	opts, err := Parse([]byte("disable: [\"F.conv3d/onnx*\"]\nmax_rewrites: 7\n"))
	require.NoError(t, err)

	metrics := rewrite.NewMetrics(prometheus.NewRegistry())
	var buf bytes.Buffer
	narrowed, runOpts, err := opts.Apply(reg, opts.Logger(&buf), metrics)
	require.NoError(t, err)

	assert.Equal(t, []string{"F.conv3d", "F.conv3d/convolution_onnx"}, narrowed.Names())
	assert.Equal(t, 6, reg.Len())
	assert.Equal(t, 7, runOpts.MaxRewrites)
	assert.Zero(t, runOpts.Workers)
	assert.Same(t, metrics, runOpts.Metrics)
	assert.NotNil(t, runOpts.Logger)

	bad := Default()
	bad.Disable = []string{"["}
	_, _, err = bad.Apply(reg, nil, nil)
	assert.Error(t, err)
}

const convModel = `7767517
5 4
pnnx.Input   in0   0 1 x
pnnx.Input   in1   0 1 w
pnnx.Input   in2   0 1 b
Conv         conv  3 1 x w b y dilations=(1,1,1) group=1 kernel_shape=(3,3,3) pads=(0,0,0,0,0,0) strides=(1,1,1)
pnnx.Output  out   1 0 y
`

func TestRun(t *testing.T) {
	reg, err := passes.Default()
	require.NoError(t, err)

	parse := func() []*ir.Graph {
		graphs := make([]*ir.Graph, 3)
		for i := range graphs {
			g, err := ir.ParseString(convModel)
			require.NoError(t, err)
			graphs[i] = g
		}
		return graphs
	}

	opts, err := Parse([]byte("workers: 2\n"))
	require.NoError(t, err)
	_, runOpts, err := opts.Apply(reg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, runOpts.Workers)

	var buf bytes.Buffer
	graphs := parse()
	stats, err := opts.Run(context.Background(), reg, graphs, opts.Logger(&buf), nil)
	require.NoError(t, err)
	require.Len(t, stats, len(graphs))
	for _, s := range stats {
		assert.Equal(t, map[string]int{"F.conv3d/onnx": 1}, s.PerPass)
	}

	opts, err = Parse([]byte("disable: [\"F.conv3d/onnx\"]\nworkers: 1\n"))
	require.NoError(t, err)
	graphs = parse()
	stats, err = opts.Run(context.Background(), reg, graphs, opts.Logger(&buf), nil)
	require.NoError(t, err)
	for _, s := range stats {
		assert.False(t, s.Changed())
	}

	bad := Default()
	bad.Disable = []string{"["}
	_, err = bad.Run(context.Background(), reg, parse(), nil, nil)
	assert.Error(t, err)
}
