package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/moneta/moneta/internal/cli/commands"
	"github.com/moneta/moneta/internal/cliopt"
)

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	return ExecuteIO(argv, os.Stdout, os.Stderr)
}

// ExecuteIO is Execute with explicit output streams.
func ExecuteIO(argv []string, stdout, stderr io.Writer) int {
	globalFS := flag.NewFlagSet("moneta", flag.ContinueOnError)
	globalFS.SetOutput(stderr)
	g := cliopt.DefaultGlobalOptions()
	g.Stdout, g.Stderr = stdout, stderr
	cliopt.BindGlobalFlags(globalFS, &g)

	if err := globalFS.Parse(argv); err != nil {
		// flag package already printed the error
		return 2
	}

	args := globalFS.Args()
	if len(args) == 0 {
		PrintRootHelp(stdout)
		return 0
	}

	verb := args[0]
	rest := args[1:]

	switch verb {
	case "--help", "-h", "help":
		PrintRootHelp(stdout)
		return 0
	case "serve":
		return commands.RunServe(g, rest)
	case "search":
		return commands.RunSearch(g, rest)
	case "topics":
		return commands.RunTopics(g, rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", verb)
		PrintRootHelp(stderr)
		return 2
	}
}
