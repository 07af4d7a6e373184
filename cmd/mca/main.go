package main

import (
	"os"

	"github.com/mcatool/mca/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
