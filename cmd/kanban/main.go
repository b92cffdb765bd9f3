// cmd/kanban/main.go
//
// This is the entry point for the kanban CLI. Every subcommand opens the board
// under the current project (creating it on first use), runs the archival
// sweep, and then performs its one operation.

package main

import (
	"os"

	"github.com/kingrea/kanban/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
