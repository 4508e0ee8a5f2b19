package main

import (
	"fmt"
	"os"

	// Driver for --cache-type sqlite.
	_ "github.com/mattn/go-sqlite3"

	"github.com/fivetwenty-io/roi/cmd/roi/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := commands.NewRootCommand(version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
