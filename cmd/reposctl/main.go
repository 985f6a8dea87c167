// Package main is the entry point for the reposched CLI.
// The CLI is the terminal tool for scheduling repositories through a reposched daemon.
package main

import (
	"os"

	"reposched/cmd/reposctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
