// Package main provides the entry point for the msgvault CLI.
package main

import (
	"os"

	"github.com/msgvault/msgvault/cmd/msgvault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
