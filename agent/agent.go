// Package agent provides a randomized Wishbone requester that drives
// the cycle-accurate cache and checks every acknowledged access
// against a functional reference model.
package agent

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/sarchlab/dramcache/cache"
	"github.com/sarchlab/dramcache/dram"
	"github.com/sarchlab/dramcache/funccache"
	"github.com/sarchlab/dramcache/wishbone"
)

// Agent issues random single and incrementing-burst accesses on the
// cache's front bus. It holds each request stable until acknowledge,
// advances burst addresses per the declared burst type, and mirrors
// every acknowledged access into the oracle.
type Agent struct {
	ctrl          *cache.Controller
	mem           *dram.Controller
	oracle        *funccache.Cache
	oracleBacking *funccache.StorageBacking

	bus    *wishbone.Bus
	layout cache.Layout

	frontBytes int
	granBytes  int
	lanes      int
	wordMask   uint64
	granMask   uint64

	// maxAddr bounds generated front-word addresses so that lines
	// alias and evictions actually happen.
	maxAddr uint64

	rng *rand.Rand

	inFlight  bool
	draining  bool
	burstLeft int

	acks   uint64
	errors []string
}

// New creates an agent driving ctrl, with mem as the DRAM device
// behind it and oracle (backed by oracleBacking) as the reference.
func New(
	ctrl *cache.Controller,
	mem *dram.Controller,
	oracle *funccache.Cache,
	oracleBacking *funccache.StorageBacking,
	seed int64,
) *Agent {
	layout := ctrl.Layout()
	cfg := ctrl.Config()
	frontBytes := cfg.DataWidth / 8
	granBytes := cfg.Granularity / 8

	return &Agent{
		ctrl:          ctrl,
		mem:           mem,
		oracle:        oracle,
		oracleBacking: oracleBacking,
		bus:           ctrl.Bus(),
		layout:        layout,
		frontBytes:    frontBytes,
		granBytes:     granBytes,
		lanes:         frontBytes / granBytes,
		wordMask:      ^uint64(0) >> (64 - cfg.DataWidth),
		granMask:      ^uint64(0) >> (64 - cfg.Granularity),
		maxAddr:       uint64(4 * layout.NumLines * layout.Ratio),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Acks returns the number of acknowledged beats.
func (a *Agent) Acks() uint64 {
	return a.acks
}

// Errors returns the mismatches observed so far.
func (a *Agent) Errors() []string {
	return a.errors
}

// Tick drives the bus for one cycle. It must run before the cache
// controller's Tick within the same simulated cycle.
func (a *Agent) Tick() {
	if a.inFlight {
		if !a.bus.Ack {
			// Hold every signal until acknowledge.
			return
		}
		a.completeBeat()
		a.advance()
		return
	}

	if a.draining || a.rng.Intn(4) == 0 {
		return
	}
	a.startRequest()
}

// Run steps the whole system (agent, cache, DRAM) for n cycles.
func (a *Agent) Run(n int) {
	for i := 0; i < n; i++ {
		a.Tick()
		a.ctrl.Tick()
		a.mem.Tick()
	}
}

func (a *Agent) startRequest() {
	bus := a.bus

	bus.Cyc = true
	bus.Stb = true
	bus.Adr = uint64(a.rng.Int63n(int64(a.maxAddr)))
	bus.We = a.rng.Intn(2) == 0
	a.randomizePayload()

	if a.rng.Intn(3) == 0 {
		bus.CTI = wishbone.IncrBurst
		bus.BTE = wishbone.BurstType(a.rng.Intn(4))
		a.burstLeft = 1 + a.rng.Intn(3)
	} else {
		bus.CTI = wishbone.Classic
		bus.BTE = wishbone.Linear
		a.burstLeft = 0
	}

	a.inFlight = true
}

func (a *Agent) randomizePayload() {
	a.bus.DatW = a.rng.Uint64() & a.wordMask
	a.bus.Sel = uint64(1+a.rng.Intn(1<<uint(a.lanes)-1)) &
		(^uint64(0) >> (64 - a.lanes))
}

// advance moves to the next burst beat or ends the cycle.
func (a *Agent) advance() {
	bus := a.bus

	if a.burstLeft > 0 {
		a.burstLeft--
		bus.Adr = wishbone.NextAddress(bus.Adr, bus.BTE)
		if a.burstLeft == 0 {
			bus.CTI = wishbone.EndOfBurst
		}
		if bus.We {
			a.randomizePayload()
		}
		return
	}

	bus.Cyc = false
	bus.Stb = false
	a.inFlight = false
}

// drain finishes the in-flight access without starting new ones, so
// every acknowledged beat is mirrored before state is compared.
func (a *Agent) drain() error {
	a.draining = true
	defer func() { a.draining = false }()

	for i := 0; i < 4096; i++ {
		if !a.inFlight && a.ctrl.State() == cache.StateCheck {
			return nil
		}
		a.Tick()
		a.ctrl.Tick()
		a.mem.Tick()
	}
	return fmt.Errorf("cache did not settle while draining")
}

// completeBeat mirrors the acknowledged beat into the oracle and, for
// reads, checks the returned data.
func (a *Agent) completeBeat() {
	bus := a.bus
	a.acks++

	byteAddr := bus.Adr * uint64(a.frontBytes)

	if bus.We {
		for lane := 0; lane < a.lanes; lane++ {
			if bus.Sel&(1<<uint(lane)) == 0 {
				continue
			}
			laneVal := bus.DatW >> uint(lane*a.granBytes*8) & a.granMask
			a.oracle.Write(
				byteAddr+uint64(lane*a.granBytes), a.granBytes, laneVal)
		}
		return
	}

	want := a.oracle.Read(byteAddr, a.frontBytes)
	if want != bus.DatR {
		a.errors = append(a.errors, fmt.Sprintf(
			"read adr 0x%X: got 0x%X, want 0x%X", bus.Adr, bus.DatR, want))
	}
}

// CheckCoherence flushes the oracle and compares the effective memory
// of both models over the generated address window: for every DRAM
// word, the DRAM content overlaid with the timing cache's dirty lines
// must match the flushed oracle's backing store. Clean resident lines
// are additionally checked to be identical to DRAM, which is the
// dirty-bit invariant.
func (a *Agent) CheckCoherence() error {
	if err := a.drain(); err != nil {
		return err
	}
	a.oracle.Flush()

	lineBytes := a.frontBytes * a.layout.Ratio
	words := a.maxAddr >> a.layout.OffsetBits

	for word := uint64(0); word < words; word++ {
		byteAddr := word * uint64(lineBytes)

		want := a.oracleBacking.Read(byteAddr, lineBytes)
		dramLine, err := a.mem.Storage().Read(byteAddr, uint64(lineBytes))
		if err != nil {
			return err
		}

		line := word & (uint64(a.layout.NumLines) - 1)
		tag := word >> a.layout.LineBits
		entry := a.ctrl.TagAt(line)

		got := dramLine
		if entry.Tag == tag {
			cached := a.ctrl.LineAt(line)
			if entry.Dirty {
				got = cached
			} else if !bytes.Equal(cached, dramLine) {
				return fmt.Errorf(
					"clean line %d diverged from DRAM word 0x%X", line, word)
			}
		}

		if !bytes.Equal(got, want) {
			return fmt.Errorf(
				"DRAM word 0x%X: got %X, want %X", word, got, want)
		}
	}

	return nil
}
