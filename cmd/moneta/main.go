package main

import (
	"os"

	"github.com/moneta/moneta/internal/cli"

	_ "modernc.org/sqlite"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
