package main

import (
	"fmt"
	"os"

	"sourcemind/cmd"
	"sourcemind/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
