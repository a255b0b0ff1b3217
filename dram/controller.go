package dram

import (
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// Controller is a model DRAM device behind a NativePort. It accepts
// one command at a time, joins write commands with their write beat,
// and answers read commands with a read beat after a configurable
// latency. Data lives in an Akita storage, addressed at
// wordAddr * wordBytes.
type Controller struct {
	port    *NativePort
	timing  Timing
	storage *mem.Storage

	cmdWait uint64
	wWait   uint64

	// Pending write access. Command and beat may arrive in either
	// order; the storage write happens once both are in.
	writeCmdSeen  bool
	writeAddr     uint64
	writeDataSeen bool
	writeData     []byte
	writeMask     uint64

	// Pending read access.
	readPending   bool
	readAddr      uint64
	readCountdown uint64
	readIssued    bool
	readDelivered bool
}

// NewController creates a model DRAM device servicing the given port.
func NewController(port *NativePort, timing Timing) (*Controller, error) {
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid DRAM timing: %w", err)
	}

	capacity := uint64(1) << port.AddrWidth * uint64(port.DataBytes())

	return &Controller{
		port:    port,
		timing:  timing,
		storage: mem.NewStorage(capacity),
	}, nil
}

// Storage returns the backing storage, for inspection and preloading.
func (c *Controller) Storage() *mem.Storage {
	return c.storage
}

// Tick advances the device by one cycle. It must run after the cache
// controller's Tick within the same simulated cycle.
func (c *Controller) Tick() {
	// The read path runs first so the acceptance tick itself does not
	// count against ReadLatency.
	c.tickRead()
	c.tickCmd()
	c.tickWrite()
	c.completeWrite()
}

func (c *Controller) tickCmd() {
	cmd := &c.port.Cmd

	if !cmd.Valid {
		cmd.Ready = false
		c.cmdWait = 0
		return
	}

	if !cmd.Ready {
		if c.cmdWait < c.timing.CmdAcceptLatency {
			c.cmdWait++
			return
		}
		cmd.Ready = true
	}

	if cmd.Fire() {
		c.acceptCommand(cmd.Addr, cmd.We)
		c.cmdWait = 0
	}
}

func (c *Controller) acceptCommand(addr uint64, we bool) {
	if we {
		if c.writeCmdSeen {
			panic("dram: write command accepted while one is pending")
		}
		c.writeCmdSeen = true
		c.writeAddr = addr
		return
	}

	if c.readPending {
		panic("dram: read command accepted while one is pending")
	}
	c.readPending = true
	c.readAddr = addr
	c.readCountdown = c.timing.ReadLatency
}

func (c *Controller) tickWrite() {
	w := &c.port.W

	if !w.Valid {
		w.Ready = false
		c.wWait = 0
		return
	}

	if !w.Ready {
		if c.wWait < c.timing.WriteAcceptLatency {
			c.wWait++
			return
		}
		w.Ready = true
	}

	if w.Fire() {
		if c.writeDataSeen {
			panic("dram: write beat accepted while one is pending")
		}
		c.writeDataSeen = true
		c.writeData = append([]byte(nil), w.Data...)
		c.writeMask = w.Mask
		c.wWait = 0
	}
}

// completeWrite commits a write access once both the command and the
// beat have been accepted.
func (c *Controller) completeWrite() {
	if !c.writeCmdSeen || !c.writeDataSeen {
		return
	}

	byteAddr := c.writeAddr * uint64(c.port.DataBytes())

	word, err := c.storage.Read(byteAddr, uint64(c.port.DataBytes()))
	if err != nil {
		panic(err)
	}

	for i := range word {
		if c.writeMask&(1<<uint(i)) != 0 {
			word[i] = c.writeData[i]
		}
	}

	if err := c.storage.Write(byteAddr, word); err != nil {
		panic(err)
	}

	c.writeCmdSeen = false
	c.writeDataSeen = false
	c.writeData = nil
}

func (c *Controller) tickRead() {
	r := &c.port.R

	if c.readIssued {
		if r.Fire() {
			c.readDelivered = true
		}
		if c.readDelivered && !r.Ready {
			r.Valid = false
			r.Data = nil
			c.readIssued = false
			c.readDelivered = false
			c.readPending = false
		}
		return
	}

	if !c.readPending {
		return
	}

	c.readCountdown--
	if c.readCountdown > 0 {
		return
	}

	byteAddr := c.readAddr * uint64(c.port.DataBytes())
	word, err := c.storage.Read(byteAddr, uint64(c.port.DataBytes()))
	if err != nil {
		panic(err)
	}

	r.Data = word
	r.Valid = true
	c.readIssued = true

	// The consumer may already be parked with Ready asserted.
	if r.Fire() {
		c.readDelivered = true
	}
}
