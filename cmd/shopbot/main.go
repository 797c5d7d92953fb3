package main

import (
	"os"

	"github.com/m3rciful/shopbot/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
