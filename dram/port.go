// Package dram models a LiteDRAM-style native port and a simple DRAM
// device behind it.
//
// The native port is three independent valid/ready channels: a command
// channel, a write-data channel, and a read-data channel. A transfer
// completes on the cycle where both Valid and Ready are asserted; the
// asserting side must hold its payload stable until then and may
// deassert on the following cycle (park-until-accepted, no queueing).
//
// Simulation convention: within one cycle the bus requester runs
// first, then the cache controller's Tick, then the DRAM controller's
// Tick. Each side samples Valid && Ready at the top of its own Tick
// and deasserts its own signal in the tick it observes the completed
// handshake, so producer and consumer each observe every transfer
// exactly once.
package dram

import "fmt"

// CmdChannel carries read/write commands. We selects the direction,
// Last marks the final command of an access sequence.
type CmdChannel struct {
	Valid bool
	Ready bool
	Last  bool
	We    bool
	Addr  uint64
}

// Fire reports whether the command transfers this cycle.
func (c *CmdChannel) Fire() bool {
	return c.Valid && c.Ready
}

// WriteChannel carries one full-width write beat. Mask holds one bit
// per byte lane.
type WriteChannel struct {
	Valid bool
	Ready bool
	Data  []byte
	Mask  uint64
}

// Fire reports whether the write beat transfers this cycle.
func (c *WriteChannel) Fire() bool {
	return c.Valid && c.Ready
}

// ReadChannel carries one full-width read beat.
type ReadChannel struct {
	Valid bool
	Ready bool
	Data  []byte
}

// Fire reports whether the read beat transfers this cycle.
func (c *ReadChannel) Fire() bool {
	return c.Valid && c.Ready
}

// NativePort bundles the three channels of one DRAM user port.
// Addresses index DataWidth-bit words.
type NativePort struct {
	AddrWidth int
	DataWidth int

	Cmd CmdChannel
	W   WriteChannel
	R   ReadChannel
}

// NewNativePort creates a native port with the given address and data
// widths, both in bits.
func NewNativePort(addrWidth, dataWidth int) (*NativePort, error) {
	if addrWidth <= 0 {
		return nil, fmt.Errorf(
			"address width must be a positive integer, not %d", addrWidth)
	}
	if dataWidth <= 0 || dataWidth&(dataWidth-1) != 0 {
		return nil, fmt.Errorf(
			"data width must be a positive power of two integer, not %d",
			dataWidth)
	}
	if dataWidth%8 != 0 || dataWidth/8 > 64 {
		return nil, fmt.Errorf(
			"data width must be a whole number of bytes up to 64, not %d bits",
			dataWidth)
	}

	return &NativePort{
		AddrWidth: addrWidth,
		DataWidth: dataWidth,
	}, nil
}

// DataBytes returns the width of one port word in bytes.
func (p *NativePort) DataBytes() int {
	return p.DataWidth / 8
}
