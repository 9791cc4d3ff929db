// Package main provides the butter CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/butter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
