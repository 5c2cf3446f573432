// Package config loads normalization settings from YAML.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/irpass/internal/ir"
	"github.com/born-ml/irpass/internal/rewrite"
)

// Options configures a normalization run.
//
// Example:
//
//	disable:
//	  - "F.conv3d/onnx_autopad*"
//	max_rewrites: 10000
//	workers: 4
//	log_level: info
type Options struct {
	// Disable lists doublestar globs of pass names to skip.
	Disable []string `yaml:"disable,omitempty" validate:"dive,required,glob"`

	// MaxRewrites caps rewrites per graph (0 = unbounded).
	MaxRewrites int `yaml:"max_rewrites,omitempty" validate:"gte=0"`

	// Workers bounds concurrent graphs in batch runs (0 = GOMAXPROCS).
	Workers int `yaml:"workers,omitempty" validate:"gte=0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" validate:"oneof=debug info warn error"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	err := validate.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("config: register glob validation: %v", err))
	}
}

// Default returns the default options.
func Default() Options {
	return Options{LogLevel: "info"}
}

// Load reads options from a YAML file.
//
//nolint:gosec // G304: path is provided by the caller on purpose
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML options. Unknown keys and multiple documents are
// rejected; missing keys take their defaults.
func Parse(data []byte) (*Options, error) {
	opts := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := decodeYAMLStrict(data, &opts); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	applyDefaults(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func decodeYAMLStrict(b []byte, opts *Options) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil {
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("yaml: multiple documents are not allowed")
		}
		return err
	}
	return nil
}

func applyDefaults(opts *Options) {
	opts.LogLevel = strings.ToLower(strings.TrimSpace(opts.LogLevel))
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
}

// Validate checks field constraints.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (o *Options) Level() slog.Level {
	switch o.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns a text logger writing to w at the configured level.
func (o *Options) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: o.Level()}))
}

// Apply narrows reg to the enabled passes and builds the matching run options.
func (o *Options) Apply(reg *rewrite.Registry, logger *slog.Logger, metrics *rewrite.Metrics) (*rewrite.Registry, rewrite.Options, error) {
	narrowed, err := reg.Without(o.Disable...)
	if err != nil {
		return nil, rewrite.Options{}, err
	}
	return narrowed, rewrite.Options{
		MaxRewrites: o.MaxRewrites,
		Workers:     o.Workers,
		Logger:      logger,
		Metrics:     metrics,
	}, nil
}

// Run normalizes graphs with the passes of reg that o leaves enabled, at most
// o.Workers graphs at a time.
func (o *Options) Run(ctx context.Context, reg *rewrite.Registry, graphs []*ir.Graph,
	logger *slog.Logger, metrics *rewrite.Metrics,
) ([]rewrite.Stats, error) {
	narrowed, runOpts, err := o.Apply(reg, logger, metrics)
	if err != nil {
		return nil, err
	}
	return narrowed.NormalizeAll(ctx, graphs, 0, runOpts)
}
