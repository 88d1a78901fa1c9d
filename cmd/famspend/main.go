package main

import (
	"os"

	"famspend/cmd/famspend/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
