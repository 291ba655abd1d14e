// ABOUTME: Entry point for the korrekturleser CLI
// ABOUTME: Proofreading and text improvement from the terminal against the Korrekturleser backend

package main

import (
	"fmt"
	"os"

	"github.com/markalston/korrekturleser-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
