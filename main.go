package main

import (
	"os"

	"github.com/patternlab/patternlab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
