// Command kuzumem runs the per-project graph memory bank: an MCP server
// over stdio or streamable HTTP, plus maintenance subcommands that drive
// the same memory service.
package main

import (
	"fmt"
	"os"
)

// Version is stamped via ldflags at release time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kuzumem: %v\n", err)
		os.Exit(1)
	}
}
