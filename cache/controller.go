package cache

import (
	"github.com/sarchlab/dramcache/dram"
	"github.com/sarchlab/dramcache/wishbone"
)

// State identifies the controller's FSM state.
type State int

// Controller states.
const (
	StateCheck State = iota
	StateEvict
	StateRefill
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCheck:
		return "CHECK"
	case StateEvict:
		return "EVICT"
	case StateRefill:
		return "REFILL"
	}
	return "UNKNOWN"
}

// Stats holds controller performance counters.
type Stats struct {
	// Ticks is the total number of cycles simulated.
	Ticks uint64
	// Reads is the number of acknowledged read requests.
	Reads uint64
	// Writes is the number of acknowledged write requests.
	Writes uint64
	// Hits is the number of acknowledged requests (every ack is a hit).
	Hits uint64
	// Misses is the number of tag mismatches that left CHECK.
	Misses uint64
	// Evictions is the number of dirty lines flushed to DRAM.
	Evictions uint64
	// Refills is the number of lines fetched from DRAM.
	Refills uint64
}

// HitRate returns the fraction of accesses that hit without a refill.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Controller is the write-back cache state machine. It owns the front
// Wishbone bus and drives the three channels of the DRAM port. One
// call to Tick advances one clock cycle; within a simulated cycle the
// requester drives the bus first, then the controller ticks, then the
// DRAM device ticks.
//
// A request is only ever judged for hit or miss once it has aged one
// tick: the controller registers {cyc, stb, adr} one tick behind the
// live signals so that the decision lines up with the one-cycle read
// latency of the tag and data stores.
type Controller struct {
	cfg    Config
	layout Layout
	bus    *wishbone.Bus
	port   *dram.NativePort

	tags *TagStore
	data *DataStore

	state State

	// Front request registered one tick behind the bus.
	regCyc bool
	regStb bool
	regAdr uint64

	// Per-channel completion flags, AND-joined before leaving a state.
	evictCmdDone  bool
	evictWDone    bool
	refillCmdDone bool
	refillRDone   bool

	fullMask uint64

	stats Stats
}

// NewController creates a cache controller in front of the given DRAM
// port. The configuration is validated here; no request activity can
// happen before validation passes.
func NewController(port *dram.NativePort, cfg Config) (*Controller, error) {
	layout, err := layoutFor(port, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Granularity == 0 {
		cfg.Granularity = 8
	}
	lineBytes := port.DataBytes()

	return &Controller{
		cfg:    cfg,
		layout: layout,
		bus:    &wishbone.Bus{},
		port:   port,
		tags:   NewTagStore(layout.NumLines),
		data: NewDataStore(
			layout.NumLines, lineBytes,
			cfg.DataWidth/8, cfg.Granularity/8),
		fullMask: ^uint64(0) >> (64 - lineBytes),
	}, nil
}

// Config returns the normalized configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Bus returns the front-side bus the controller serves.
func (c *Controller) Bus() *wishbone.Bus {
	return c.bus
}

// Layout returns the derived address geometry.
func (c *Controller) Layout() Layout {
	return c.layout
}

// State returns the current FSM state.
func (c *Controller) State() State {
	return c.state
}

// Stats returns the performance counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// TagAt returns the stored tag entry for a line, for inspection.
func (c *Controller) TagAt(line uint64) TagEntry {
	return c.tags.Entry(line)
}

// LineAt returns the stored data of a line, for inspection.
func (c *Controller) LineAt(line uint64) []byte {
	return c.data.Line(line)
}

// Tick advances the controller by one cycle.
func (c *Controller) Tick() {
	c.stats.Ticks++
	c.bus.Ack = false

	switch c.state {
	case StateCheck:
		c.tickCheck()
	case StateEvict:
		c.tickEvict()
	case StateRefill:
		c.tickRefill()
	}
}

func (c *Controller) tickCheck() {
	bus := c.bus
	offset, line, tag := c.layout.Decompose(bus.Adr)
	tagOut := c.tags.Out()
	regActive := c.regCyc && c.regStb

	hit := false
	miss := false
	if bus.Active() {
		if tag == tagOut.Tag {
			hit = regActive
		} else if regActive {
			miss = true
		}
	}

	// Read data is served speculatively every tick; it is only
	// meaningful together with Ack.
	bus.DatR = c.data.FrontWord(c.data.Out(), offset)
	bus.Ack = hit

	// Drive the store read ports. While a registered request is
	// outstanding and not yet acknowledged the read is presented but
	// not enabled, so the latched outputs keep the requested line's
	// tag and data for a possible eviction.
	if bus.Active() {
		rdLine := line
		if hit && bus.CTI == wishbone.IncrBurst {
			// Burst lookahead: read the next beat's line so
			// back-to-back burst hits ack on consecutive ticks.
			_, nextLine, _ := c.layout.Decompose(
				wishbone.NextAddress(bus.Adr, bus.BTE))
			rdLine = nextLine
		}
		enable := !regActive || hit
		c.tags.Present(rdLine, enable)
		c.data.Present(rdLine, enable)
	}

	// Tick boundary: latch reads before committing this tick's write,
	// matching the non-transparent read ports of the stores.
	c.tags.Sync()
	c.data.Sync()

	if hit {
		c.stats.Hits++
		if bus.We {
			c.stats.Writes++
			c.tags.Write(line, TagEntry{Tag: tag, Dirty: true})
			c.data.WriteFront(line, offset, bus.DatW, bus.Sel)
		} else {
			c.stats.Reads++
		}
	}

	if miss {
		c.stats.Misses++
		if tagOut.Dirty {
			c.stats.Evictions++
			c.state = StateEvict
		} else {
			c.state = StateRefill
		}
	}

	// Register the live request one tick behind. A miss drops the
	// registered request so it is re-presented after the refill.
	c.regCyc = bus.Cyc && !miss
	c.regStb = bus.Stb && !miss
	c.regAdr = bus.Adr
}

func (c *Controller) tickEvict() {
	cmd := &c.port.Cmd
	w := &c.port.W

	if cmd.Fire() {
		c.evictCmdDone = true
		cmd.Valid = false
	}
	if w.Fire() {
		c.evictWDone = true
		w.Valid = false
	}

	if c.evictCmdDone && c.evictWDone {
		c.evictCmdDone = false
		c.evictWDone = false
		c.state = StateRefill
		return
	}

	_, line, _ := c.layout.Decompose(c.regAdr)

	if !c.evictCmdDone {
		cmd.Valid = true
		cmd.Last = false
		cmd.We = true
		// The victim's tag is still held on the tag read port.
		cmd.Addr = c.layout.DRAMAddr(line, c.tags.Out().Tag)
	}
	if !c.evictWDone {
		w.Valid = true
		w.Data = c.data.Out()
		w.Mask = c.fullMask
	}
}

func (c *Controller) tickRefill() {
	cmd := &c.port.Cmd
	r := &c.port.R
	_, line, tag := c.layout.Decompose(c.regAdr)

	if cmd.Fire() {
		c.refillCmdDone = true
		cmd.Valid = false
	}
	if r.Fire() {
		c.refillRDone = true
		c.tags.Write(line, TagEntry{Tag: tag, Dirty: false})
		c.data.WriteLine(line, r.Data)
	}

	if c.refillCmdDone && c.refillRDone {
		c.refillCmdDone = false
		c.refillRDone = false
		c.state = StateCheck
		c.stats.Refills++
		r.Ready = false
		return
	}

	if !c.refillCmdDone {
		cmd.Valid = true
		cmd.Last = true
		cmd.We = false
		cmd.Addr = c.layout.DRAMAddr(line, tag)
	}
	r.Ready = !c.refillRDone
}
