package cache

// TagEntry is one tag-store entry.
type TagEntry struct {
	Tag   uint64
	Dirty bool
}

// TagStore is a synchronous line-indexed table of tag entries. The
// read port has one cycle of latency: an address presented with
// Present during one tick is latched by Sync at the end of that tick
// and observable through Out from the next tick on. A read presented
// without enable leaves the latched output untouched, and writes
// commit in the tick they are issued.
type TagStore struct {
	entries []TagEntry

	rdLine uint64
	rdEn   bool
	out    TagEntry
}

// NewTagStore creates a tag store with numLines entries.
func NewTagStore(numLines int) *TagStore {
	return &TagStore{entries: make([]TagEntry, numLines)}
}

// Present drives the read port for the current tick.
func (s *TagStore) Present(line uint64, enable bool) {
	s.rdLine = line
	s.rdEn = enable
}

// Sync latches the read port at the tick boundary. The latched value
// reflects store content from before any write issued later in the
// same tick.
func (s *TagStore) Sync() {
	if s.rdEn {
		s.out = s.entries[s.rdLine]
		s.rdEn = false
	}
}

// Out returns the currently latched read output.
func (s *TagStore) Out() TagEntry {
	return s.out
}

// Write commits an entry.
func (s *TagStore) Write(line uint64, entry TagEntry) {
	s.entries[line] = entry
}

// Entry returns the stored entry for a line, bypassing the read port.
func (s *TagStore) Entry(line uint64) TagEntry {
	return s.entries[line]
}

// DataStore is a synchronous line-indexed table of full cache lines
// with the same one-cycle read-port discipline as TagStore. Lines are
// one DRAM word wide; front-width words pack little-endian within a
// line.
type DataStore struct {
	lineBytes  int
	frontBytes int
	granBytes  int

	lines [][]byte

	rdLine uint64
	rdEn   bool
	out    []byte
}

// NewDataStore creates a data store with numLines lines of lineBytes
// each, writable at frontBytes granularity under a select mask of
// granBytes-sized lanes.
func NewDataStore(numLines, lineBytes, frontBytes, granBytes int) *DataStore {
	lines := make([][]byte, numLines)
	for i := range lines {
		lines[i] = make([]byte, lineBytes)
	}

	return &DataStore{
		lineBytes:  lineBytes,
		frontBytes: frontBytes,
		granBytes:  granBytes,
		lines:      lines,
		out:        make([]byte, lineBytes),
	}
}

// Present drives the read port for the current tick.
func (s *DataStore) Present(line uint64, enable bool) {
	s.rdLine = line
	s.rdEn = enable
}

// Sync latches the read port at the tick boundary.
func (s *DataStore) Sync() {
	if s.rdEn {
		copy(s.out, s.lines[s.rdLine])
		s.rdEn = false
	}
}

// Out returns the currently latched line. The slice stays valid until
// the next enabled Sync.
func (s *DataStore) Out() []byte {
	return s.out
}

// WriteFront commits one front-width word into a line at the given
// offset. Only lanes whose select bit is set are written.
func (s *DataStore) WriteFront(line, offset, data, sel uint64) {
	dst := s.lines[line]
	base := int(offset) * s.frontBytes

	lanes := s.frontBytes / s.granBytes
	for lane := 0; lane < lanes; lane++ {
		if sel&(1<<uint(lane)) == 0 {
			continue
		}
		for b := 0; b < s.granBytes; b++ {
			byteIdx := lane*s.granBytes + b
			dst[base+byteIdx] = byte(data >> (byteIdx * 8))
		}
	}
}

// WriteLine commits a full line.
func (s *DataStore) WriteLine(line uint64, data []byte) {
	copy(s.lines[line], data)
}

// FrontWord extracts the front-width word at the given offset from a
// latched line.
func (s *DataStore) FrontWord(line []byte, offset uint64) uint64 {
	base := int(offset) * s.frontBytes

	var word uint64
	for b := 0; b < s.frontBytes; b++ {
		word |= uint64(line[base+b]) << (b * 8)
	}
	return word
}

// Line returns the stored content of a line, bypassing the read port.
func (s *DataStore) Line(line uint64) []byte {
	return s.lines[line]
}
