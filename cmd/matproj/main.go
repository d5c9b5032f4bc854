package main

import (
	"os"

	"github.com/kailas-cloud/matproj/cmd/matproj/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
