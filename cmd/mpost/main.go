// Package main is the entry point for the mpost CLI.
// mpost submits posts to Reddit through its OAuth API,
// including image, video and gallery uploads.
package main

import (
	"os"

	"github.com/mpost-project/mpost-cli/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
