// Package main provides the entry point for the asanasync CLI.
package main

import (
	"os"

	"github.com/oknozoka/asanasync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
