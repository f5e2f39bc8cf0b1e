package main

import (
	"os"

	"github.com/rustyeddy/tradesense/cmd/tradesense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
