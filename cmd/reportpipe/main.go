package main

import (
	"os"

	"github.com/fitops/reportpipe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
