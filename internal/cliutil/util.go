package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/moneta/moneta/internal/cliopt"
	"github.com/moneta/moneta/internal/logging"
	"github.com/moneta/moneta/moneta"
	"github.com/moneta/moneta/moneta/config"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// LoadConfig reads the config named by the global options and applies the
// command line overrides.
func LoadConfig(g cliopt.GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	return cfg, nil
}

// OpenService loads the config, builds the root logger on stderr and
// connects every data source.
func OpenService(ctx context.Context, g cliopt.GlobalOptions) (*moneta.Service, *config.Config, zerolog.Logger, error) {
	cfg, err := LoadConfig(g)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	logger, err := logging.New(cfg.Log, g.Stderr)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	opts := moneta.DefaultOptions()
	opts.Logger = logger
	svc, err := moneta.Open(ctx, cfg, opts)
	if err != nil {
		return nil, nil, logger, err
	}
	return svc, cfg, logger, nil
}
