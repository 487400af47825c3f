// Package cli provides the command-line interface for bestfour
package cli

import (
	"errors"
	"fmt"
)

// noStockCodeMessage is part of the output contract and must not change.
const noStockCodeMessage = "No stock code provided"

// ErrNoStockCode is returned by the root command when it gets no code.
var ErrNoStockCode = errors.New(noStockCodeMessage)

// Run starts the CLI application and returns the process exit code.
func Run(args []string, opts ...Option) int {
	rootCmd := NewRootCmd(opts...)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrNoStockCode) {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
