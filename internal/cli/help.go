package cli

import (
	"fmt"
	"io"
)

func PrintRootHelp(w io.Writer) {
	fmt.Fprintln(w, `moneta - topic search over relational data sources

USAGE
  moneta [global flags] <command> [args]

GLOBAL FLAGS
  -config <file>     YAML config (default moneta.yaml, env MONETA_CONFIG)
  -log-level <lvl>   override log.level
  -format pretty|json

COMMANDS
  serve   [-addr host:port]
  search  <path> [-start-row N] [-max-rows N] [-explain]
  topics

EXAMPLES
  moneta -config moneta.yaml serve
  moneta search /moneta/topic/accounts/42 -max-rows 10
  moneta -format json topics`)
}
