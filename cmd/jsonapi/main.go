package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ChangJoo-Park/json-api/internal/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
