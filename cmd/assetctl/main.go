// Package main provides the operator CLI for the asset pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/andreyxaxa/Asset-Pipeline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
