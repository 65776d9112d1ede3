// Package main is the entry point for the gazeta CLI.
package main

import (
	"os"

	"github.com/jmylchreest/gazeta/cmd/gazeta/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
