// Package normalize rewrites equivalent operator encodings in an IR graph
// into their canonical form.
//
// # Example Usage
//
//	g, err := ir.ParseFile("model.pnnx.param")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stats, err := normalize.Graph(g)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d rewrites\n", stats.Rewrites)
//
// # Supported Operators
//
//   - F.conv3d: aten::_convolution, aten::convolution_onnx, ONNX Conv
package normalize

import (
	"context"
	"os"
	"sync"

	"github.com/born-ml/irpass/internal/config"
	internalir "github.com/born-ml/irpass/internal/ir"
	"github.com/born-ml/irpass/internal/passes"
	"github.com/born-ml/irpass/internal/rewrite"
)

// Registry is an ordered, immutable set of passes.
type Registry = rewrite.Registry

// Pass is one rewrite rule.
type Pass = rewrite.Pass

// Captured holds wildcard bindings of one match.
type Captured = rewrite.Captured

// Options configures a normalization run.
type Options = rewrite.Options

// Stats summarizes a normalization run.
type Stats = rewrite.Stats

// Config holds YAML run settings: disabled passes, rewrite limit, workers
// and log level.
type Config = config.Options

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads settings from a YAML file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// defaultRegistry compiles the built-in passes once, on first use.
var defaultRegistry = sync.OnceValues(passes.Default)

// Default returns the registry of built-in passes.
func Default() (*Registry, error) {
	return defaultRegistry()
}

// NewRegistry compiles custom passes.
func NewRegistry(p ...Pass) (*Registry, error) {
	return rewrite.NewRegistry(p...)
}

// Graph normalizes g in place with the built-in passes.
func Graph(g *internalir.Graph, opts ...Options) (Stats, error) {
	reg, err := Default()
	if err != nil {
		return Stats{}, err
	}
	return reg.Normalize(g, opts...)
}

// Graphs normalizes independent graphs concurrently with the built-in passes.
func Graphs(ctx context.Context, graphs []*internalir.Graph, workers int, opts ...Options) ([]Stats, error) {
	reg, err := Default()
	if err != nil {
		return nil, err
	}
	return reg.NormalizeAll(ctx, graphs, workers, opts...)
}

// GraphsConfig normalizes graphs with the built-in passes cfg leaves enabled,
// at most cfg.Workers at a time. Logs go to stderr at cfg's level.
func GraphsConfig(ctx context.Context, graphs []*internalir.Graph, cfg *Config) ([]Stats, error) {
	reg, err := Default()
	if err != nil {
		return nil, err
	}
	return cfg.Run(ctx, reg, graphs, cfg.Logger(os.Stderr), nil)
}
