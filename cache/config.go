// Package cache implements a cycle-accurate model of a direct-mapped
// write-back cache that bridges a narrow Wishbone bus to a wide
// DRAM-style native port.
package cache

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/dramcache/dram"
)

// Config holds the construction parameters of the cache. All values
// are fixed for the lifetime of the controller.
type Config struct {
	// Size is the cache capacity in granularity units (bytes at the
	// default granularity). Must be a power of two.
	Size int

	// DataWidth is the front-side bus data width in bits. Must be a
	// power of two, at most 64.
	DataWidth int

	// Granularity is the width in bits of one select lane. 0 selects
	// the byte granularity of 8.
	Granularity int
}

// Layout is the address geometry derived from a Config and the DRAM
// port it fronts. A front-side address splits, low bits first, into
// {offset, line, tag}.
type Layout struct {
	// Ratio is the number of front-width words per line.
	Ratio int
	// NumLines is the number of cache lines.
	NumLines int

	OffsetBits int
	LineBits   int
	TagBits    int
	// AddrBits is the total front-side address width.
	AddrBits int
}

// Decompose splits a front-side address into its fields.
func (l Layout) Decompose(adr uint64) (offset, line, tag uint64) {
	offset = adr & (uint64(l.Ratio) - 1)
	line = (adr >> l.OffsetBits) & (uint64(l.NumLines) - 1)
	tag = (adr >> (l.OffsetBits + l.LineBits)) & (1<<l.TagBits - 1)
	return
}

// DRAMAddr composes the backend word address that a line and tag pair
// maps to.
func (l Layout) DRAMAddr(line, tag uint64) uint64 {
	return tag<<l.LineBits | line
}

func log2(v int) int {
	return bits.TrailingZeros64(uint64(v))
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// layoutFor validates the configuration against the port and derives
// the address geometry. It fails before any state is built.
func layoutFor(port *dram.NativePort, cfg Config) (Layout, error) {
	if cfg.Granularity == 0 {
		cfg.Granularity = 8
	}

	if !isPowerOfTwo(cfg.Size) {
		return Layout{}, fmt.Errorf(
			"cache size must be a positive power of two integer, not %d",
			cfg.Size)
	}
	if !isPowerOfTwo(cfg.DataWidth) || cfg.DataWidth > 64 {
		return Layout{}, fmt.Errorf(
			"data width must be a positive power of two integer up to 64, not %d",
			cfg.DataWidth)
	}
	if !isPowerOfTwo(cfg.Granularity) || cfg.Granularity%8 != 0 {
		return Layout{}, fmt.Errorf(
			"granularity must be a positive power of two multiple of 8, not %d",
			cfg.Granularity)
	}
	if cfg.DataWidth%cfg.Granularity != 0 {
		return Layout{}, fmt.Errorf(
			"data width %d must be a multiple of granularity %d",
			cfg.DataWidth, cfg.Granularity)
	}
	if port.DataWidth%cfg.DataWidth != 0 {
		return Layout{}, fmt.Errorf(
			"DRAM port data width %d must be a multiple of data width %d",
			port.DataWidth, cfg.DataWidth)
	}

	numLines := cfg.Size * cfg.Granularity / port.DataWidth
	if numLines < 1 {
		return Layout{}, fmt.Errorf(
			"cache size %d holds less than one %d-bit line",
			cfg.Size, port.DataWidth)
	}

	layout := Layout{
		Ratio:      port.DataWidth / cfg.DataWidth,
		NumLines:   numLines,
		OffsetBits: log2(port.DataWidth / cfg.DataWidth),
		LineBits:   log2(numLines),
	}
	layout.AddrBits = port.AddrWidth + layout.OffsetBits
	layout.TagBits = layout.AddrBits - layout.LineBits - layout.OffsetBits

	if layout.TagBits < 1 {
		return Layout{}, fmt.Errorf(
			"no tag bits left: %d address bits, %d line bits, %d offset bits",
			layout.AddrBits, layout.LineBits, layout.OffsetBits)
	}

	return layout, nil
}
