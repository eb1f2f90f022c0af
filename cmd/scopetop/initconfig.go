package main

import (
	"fmt"
	"os"

	"github.com/nixlim/scopetop/internal/config"
)

// RunInitConfig writes the default configuration to path and prints the
// result.
//
// Exit codes:
//   - 0: written, or a config already exists
//   - 1: error
func RunInitConfig(path string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no config path (home directory unknown); pass -config")
		os.Exit(1)
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !written {
		fmt.Printf("Config already exists at %s. No changes made.\n", path)
		return
	}
	fmt.Printf("Wrote default config to %s\n", path)

	// Validate what was just written so a broken default is caught here.
	if _, err := config.LoadFrom(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: written config does not load: %v\n", err)
		os.Exit(1)
	}
}
