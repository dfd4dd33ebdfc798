package main

import (
	"os"

	"github.com/susu3304/billdividr/cmd/billdividr/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
