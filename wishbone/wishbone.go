// Package wishbone models the signals of a Wishbone bus with the
// registered-feedback burst extensions (CTI/BTE).
//
// A Bus is a plain signal record shared between a requester and a
// peripheral model. The requester drives the input signals and must
// hold them stable until Ack is observed; the peripheral drives DatR
// and Ack. Only one request may be in flight at a time.
package wishbone

// CycleType is the Wishbone CTI (cycle type identifier) field.
type CycleType uint8

// Registered-feedback cycle type encodings.
const (
	Classic        CycleType = 0b000
	ConstAddrBurst CycleType = 0b001
	IncrBurst      CycleType = 0b010
	EndOfBurst     CycleType = 0b111
)

// String returns the mnemonic for the cycle type.
func (c CycleType) String() string {
	switch c {
	case Classic:
		return "CLASSIC"
	case ConstAddrBurst:
		return "CONST_ADDR_BURST"
	case IncrBurst:
		return "INCR_BURST"
	case EndOfBurst:
		return "END_OF_BURST"
	}
	return "RESERVED"
}

// BurstType is the Wishbone BTE (burst type extension) field. It
// declares how the address advances between beats of an incrementing
// burst.
type BurstType uint8

// Burst type encodings.
const (
	Linear BurstType = 0b00
	Wrap4  BurstType = 0b01
	Wrap8  BurstType = 0b10
	Wrap16 BurstType = 0b11
)

// String returns the mnemonic for the burst type.
func (b BurstType) String() string {
	switch b {
	case Linear:
		return "LINEAR"
	case Wrap4:
		return "WRAP_4"
	case Wrap8:
		return "WRAP_8"
	case Wrap16:
		return "WRAP_16"
	}
	return "RESERVED"
}

// Bus is a Wishbone interface record. Addresses index front-width
// words; Sel carries one bit per granularity unit of the data word.
type Bus struct {
	// Requester-driven signals.
	Cyc  bool
	Stb  bool
	Adr  uint64
	We   bool
	Sel  uint64
	DatW uint64
	CTI  CycleType
	BTE  BurstType

	// Peripheral-driven signals.
	DatR uint64
	Ack  bool
}

// Active reports whether a request is currently presented.
func (b *Bus) Active() bool {
	return b.Cyc && b.Stb
}

// NextAddress computes the address of the next beat of a burst. Linear
// bursts increment the full address. Wrap bursts increment only the
// low 2, 3, or 4 bits, so the address wraps within a fixed-size
// window. Reserved burst types leave the address unchanged.
func NextAddress(adr uint64, bte BurstType) uint64 {
	switch bte {
	case Linear:
		return adr + 1
	case Wrap4:
		return adr&^uint64(0x3) | (adr+1)&0x3
	case Wrap8:
		return adr&^uint64(0x7) | (adr+1)&0x7
	case Wrap16:
		return adr&^uint64(0xF) | (adr+1)&0xF
	}
	return adr
}
