package main

import (
	"os"

	"github.com/dyike/bestfour/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
