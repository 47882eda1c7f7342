package main

import (
	"os"

	"github.com/garyjia/expense-workflow/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
