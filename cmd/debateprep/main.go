package main

import (
	"os"

	"github.com/openfloor/debateprep/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
