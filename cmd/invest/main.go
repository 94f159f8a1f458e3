package main

import (
	"os"

	"github.com/newer-zhu/investment/cmd/invest/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
