package main

import (
	"os"

	"github.com/solatis/stemkeeper/cmd/stemkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
