// Package main is the entry point for the wardriver sighting logger.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/wardriver/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
