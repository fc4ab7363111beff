package main

import (
	"os"

	"github.com/acumenlabs/acumen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
