// Command api runs the CogniGraph backend.
//
// Usage:
//
//	api [serve]   start the HTTP server (default)
//	api migrate   apply the topic store schema and exit
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
