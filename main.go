package main

import (
	"os"

	"github.com/tracelens/tracelens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
