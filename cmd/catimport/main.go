package main

import (
	"os"

	"github.com/badno/catimport/cmd/catimport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
