// Package main is the bibkit entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bibkit/bibkit/internal/commands"
)

// version is set at build time.
var version = "0.3.0"

func main() {
	if err := commands.NewRootCmd(version).Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
