package commands

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/moneta/moneta/internal/cliopt"
	"github.com/moneta/moneta/internal/cliutil"
	"github.com/moneta/moneta/moneta"
	"github.com/moneta/moneta/moneta/request"
)

func RunSearch(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(g.Stderr)
	var startRow, maxRows, format string
	var explain bool
	var timeout time.Duration
	fs.StringVar(&startRow, "start-row", "", "rows to skip")
	fs.StringVar(&maxRows, "max-rows", "", "max rows to return")
	fs.StringVar(&format, "format", g.Format, "format: pretty|json")
	fs.BoolVar(&explain, "explain", false, "print the generated SQL")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "search timeout")

	// flags may appear on either side of the path
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(g.Stderr, "missing search path")
		return 2
	}
	path := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(g.Stderr, "unexpected arguments: %v\n", fs.Args())
		return 2
	}

	params := url.Values{}
	if startRow != "" {
		params.Set(request.ParamStartRow, startRow)
	}
	if maxRows != "" {
		params.Set(request.ParamMaxRows, maxRows)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc, _, _, err := cliutil.OpenService(ctx, g)
	if err != nil {
		fmt.Fprintln(g.Stderr, err)
		return 1
	}
	defer svc.Close()

	start := time.Now()
	res, err := svc.Search(ctx, request.Coordinates{Path: path, Params: params}, moneta.SearchOptions{Explain: explain})
	if err != nil {
		fmt.Fprintln(g.Stderr, err)
		if kind, ok := moneta.KindOf(err); ok && kind.IsClientError() {
			return 2
		}
		return 1
	}
	printSearch(g, cliutil.ParseOutputFormat(format), res, time.Since(start))
	return 0
}

func printSearch(g cliopt.GlobalOptions, fmtOut cliutil.OutputFormat, res moneta.Result, dur time.Duration) {
	w := g.Stdout
	switch fmtOut {
	case cliutil.FormatJSON:
		out := map[string]any{
			"topic":    res.Request.Topic,
			"startRow": res.Request.StartRow,
			"maxRows":  res.Request.MaxRows,
			"count":    len(res.Records),
			"results":  res.Records,
		}
		if res.ExplainSQL != "" {
			out["explainSql"] = res.ExplainSQL
		}
		cliutil.PrintJSON(w, out)
	default:
		if res.ExplainSQL != "" {
			fmt.Fprintln(w, "=== Plan ===")
			for _, step := range res.ExplainSteps {
				fmt.Fprintf(w, "  %s\n", step)
			}
			fmt.Fprintln(w, "\n=== SQL ===")
			fmt.Fprintln(w, res.ExplainSQL)
			fmt.Fprintln(w, "\n=== Results ===")
		}
		for _, rec := range res.Records {
			cliutil.PrintJSON(w, rec)
		}
		fmt.Fprintf(w, "\n--- %d %s records in %dms ---\n", len(res.Records), res.Request.Topic, dur.Milliseconds())
	}
}
