// Package funccache provides a functional (untimed) model of a
// direct-mapped write-back cache. It mirrors the visible semantics of
// the cycle-accurate controller and serves as the oracle the timing
// model is checked against.
package funccache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// BackingStore is the next level of the memory hierarchy.
type BackingStore interface {
	// Read fetches data from the backing store.
	Read(addr uint64, size int) []byte
	// Write stores data to the backing store.
	Write(addr uint64, data []byte)
}

// Stats holds cache access statistics.
type Stats struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a direct-mapped write-back cache operating on byte
// addresses. Tag state lives in an Akita cache directory with a
// single way per set; data lives in one byte slice per line.
type Cache struct {
	lineBytes int

	directory *akitacache.DirectoryImpl
	lines     [][]byte
	backing   BackingStore

	stats Stats
}

// New creates a cache with numLines lines of lineBytes each.
func New(numLines, lineBytes int, backing BackingStore) *Cache {
	lines := make([][]byte, numLines)
	for i := range lines {
		lines[i] = make([]byte, lineBytes)
	}

	return &Cache{
		lineBytes: lineBytes,
		directory: akitacache.NewDirectory(
			numLines, 1, lineBytes,
			akitacache.NewLRUVictimFinder()),
		lines:   lines,
		backing: backing,
	}
}

// Stats returns the access counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// lineIndex computes the index into lines for a directory block.
// With one way per set the set ID is the line number.
func (c *Cache) lineIndex(block *akitacache.Block) int {
	return block.SetID
}

func (c *Cache) lineAddr(addr uint64) uint64 {
	return addr / uint64(c.lineBytes) * uint64(c.lineBytes)
}

// Read returns size bytes' worth of data at addr as a little-endian
// value. addr+size must not cross a line boundary.
func (c *Cache) Read(addr uint64, size int) uint64 {
	c.stats.Reads++

	line := c.lookupOrFill(addr)
	offset := addr % uint64(c.lineBytes)

	var value uint64
	for i := 0; i < size; i++ {
		value |= uint64(line[int(offset)+i]) << (i * 8)
	}
	return value
}

// Write stores size bytes of a little-endian value at addr and marks
// the line dirty. addr+size must not cross a line boundary.
func (c *Cache) Write(addr uint64, size int, value uint64) {
	c.stats.Writes++

	line := c.lookupOrFill(addr)
	offset := addr % uint64(c.lineBytes)

	for i := 0; i < size; i++ {
		line[int(offset)+i] = byte(value >> (i * 8))
	}

	block := c.directory.Lookup(0, c.lineAddr(addr))
	block.IsDirty = true
}

// lookupOrFill returns the line holding addr, fetching it from the
// backing store on a miss and writing back a dirty victim first.
func (c *Cache) lookupOrFill(addr uint64) []byte {
	lineAddr := c.lineAddr(addr)

	block := c.directory.Lookup(0, lineAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return c.lines[c.lineIndex(block)]
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(lineAddr)
	line := c.lines[c.lineIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, line)
		}
	}

	copy(line, c.backing.Read(lineAddr, c.lineBytes))

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return line
}

// Flush writes back all dirty lines and invalidates everything.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
				c.backing.Write(block.Tag, c.lines[c.lineIndex(block)])
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}
