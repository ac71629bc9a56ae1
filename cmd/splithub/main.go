package main

import (
	"os"

	"github.com/splithub/splithub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
