// Command qrawl is the command-line interface to the extraction engine:
// policy management, page extraction and the standalone page tools.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
