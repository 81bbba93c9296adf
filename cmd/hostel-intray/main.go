package main

import (
	"os"

	"github.com/cristianoliveira/hostel-intray/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
