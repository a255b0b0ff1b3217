// Package main provides the entry point for dramcache.
// It runs randomized traffic through the cycle-accurate write-back
// cache model and verifies it against the functional reference.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/dramcache/agent"
	"github.com/sarchlab/dramcache/cache"
	"github.com/sarchlab/dramcache/dram"
	"github.com/sarchlab/dramcache/funccache"
)

var (
	cycles     = flag.Int("cycles", 100000, "Number of cycles to simulate")
	seed       = flag.Int64("seed", 1, "Traffic generator seed")
	configPath = flag.String("config", "", "Path to DRAM timing JSON file")
	size       = flag.Int("size", 1024, "Cache size in bytes")
	dataWidth  = flag.Int("data-width", 16, "Front bus data width in bits")
	dramWidth  = flag.Int("dram-width", 128, "DRAM port data width in bits")
	dramAddr   = flag.Int("dram-addr", 23, "DRAM port address width in bits")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	timing := dram.DefaultTiming()
	if *configPath != "" {
		var err error
		timing, err = dram.LoadTiming(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	port, err := dram.NewNativePort(*dramAddr, *dramWidth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating DRAM port: %v\n", err)
		os.Exit(1)
	}

	ctrl, err := cache.NewController(port, cache.Config{
		Size:      *size,
		DataWidth: *dataWidth,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating cache: %v\n", err)
		os.Exit(1)
	}

	device, err := dram.NewController(port, timing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating DRAM device: %v\n", err)
		os.Exit(1)
	}

	layout := ctrl.Layout()
	lineBytes := port.DataBytes()

	if *verbose {
		fmt.Printf("Cache: %d lines of %d bytes, ratio %d, tag %d bits\n",
			layout.NumLines, lineBytes, layout.Ratio, layout.TagBits)
		fmt.Printf("DRAM timing: cmd %d, write %d, read %d cycles\n",
			timing.CmdAcceptLatency, timing.WriteAcceptLatency,
			timing.ReadLatency)
	}

	capacity := uint64(1)<<*dramAddr * uint64(lineBytes)
	oracleBacking := funccache.NewStorageBacking(mem.NewStorage(capacity))
	oracle := funccache.New(layout.NumLines, lineBytes, oracleBacking)

	traffic := agent.New(ctrl, device, oracle, oracleBacking, *seed)
	traffic.Run(*cycles)

	failed := false
	for _, e := range traffic.Errors() {
		fmt.Fprintf(os.Stderr, "Mismatch: %s\n", e)
		failed = true
	}
	if err := traffic.CheckCoherence(); err != nil {
		fmt.Fprintf(os.Stderr, "Coherence check failed: %v\n", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}

	stats := ctrl.Stats()
	fmt.Printf("Cycles:    %d\n", stats.Ticks)
	fmt.Printf("Acks:      %d\n", traffic.Acks())
	fmt.Printf("Hits:      %d\n", stats.Hits)
	fmt.Printf("Misses:    %d\n", stats.Misses)
	fmt.Printf("Evictions: %d\n", stats.Evictions)
	fmt.Printf("Refills:   %d\n", stats.Refills)
	fmt.Printf("Hit rate:  %.4f\n", stats.HitRate())
	fmt.Println("Coherence check passed")
}
