package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/moneta/moneta/internal/cliopt"
	"github.com/moneta/moneta/internal/cliutil"
)

// RunTopics lists the configured topics. It reads the config only and never
// connects to a data source.
func RunTopics(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("topics", flag.ContinueOnError)
	fs.SetOutput(g.Stderr)
	var format string
	fs.StringVar(&format, "format", g.Format, "format: pretty|json")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	cfg, err := cliutil.LoadConfig(g)
	if err != nil {
		fmt.Fprintln(g.Stderr, err)
		return 1
	}
	registry, err := cfg.Registry()
	if err != nil {
		fmt.Fprintln(g.Stderr, err)
		return 1
	}
	topics := registry.Topics()

	if cliutil.ParseOutputFormat(format) == cliutil.FormatJSON {
		cliutil.PrintJSON(g.Stdout, topics)
		return 0
	}

	for _, t := range topics {
		keys := make([]string, len(t.KeyFields))
		for i, kf := range t.KeyFields {
			keys[i] = fmt.Sprintf("%s:%s", kf.Column, kf.DataType)
		}
		name := t.Name
		if t.PluralName != "" {
			name += " (" + t.PluralName + ")"
		}
		fmt.Fprintf(g.Stdout, "%s\n  source: %s\n  table:  %s\n  keys:   %s\n", name, t.DataSource, qualified(t.Schema, t.Table), strings.Join(keys, ", "))
	}
	fmt.Fprintf(g.Stdout, "\n--- %d topics ---\n", len(topics))
	return 0
}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}
