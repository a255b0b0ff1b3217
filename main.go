// Package main provides the entry point for dramcache.
// dramcache is a cycle-accurate model of a write-back cache bridging
// a Wishbone bus to a LiteDRAM-style native port, built on Akita
// memory components.
//
// For the full CLI, use: go run ./cmd/dramcache
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("dramcache - Wishbone-to-DRAM write-back cache model")
	fmt.Println("Built on Akita memory components")
	fmt.Println("")
	fmt.Println("Usage: dramcache [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -cycles    Number of cycles to simulate")
	fmt.Println("  -seed      Traffic generator seed")
	fmt.Println("  -config    Path to DRAM timing JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/dramcache' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/dramcache' instead.")
	}
}
