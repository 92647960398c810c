// Package main is the entry point for the ifcq CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/ifcq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
