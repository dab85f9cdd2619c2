package cliopt

import (
	"flag"
	"io"
	"os"
)

// EnvConfig names the environment variable consulted when -config is unset.
const EnvConfig = "MONETA_CONFIG"

const DefaultConfigPath = "moneta.yaml"

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command router and per-command code.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string

	Stdout io.Writer
	Stderr io.Writer
}

func DefaultGlobalOptions() GlobalOptions {
	path := os.Getenv(EnvConfig)
	if path == "" {
		path = DefaultConfigPath
	}
	return GlobalOptions{
		ConfigPath: path,
		Format:     "pretty",
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func BindGlobalFlags(fs *flag.FlagSet, g *GlobalOptions) {
	fs.StringVar(&g.ConfigPath, "config", g.ConfigPath, "YAML config file (env "+EnvConfig+")")
	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "override log.level from the config")
	fs.StringVar(&g.Format, "format", g.Format, "output format: pretty|json")
}
