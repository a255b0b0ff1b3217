package dram

import (
	"encoding/json"
	"fmt"
	"os"
)

// Timing holds handshake latencies of the model DRAM device, in
// cycles.
type Timing struct {
	// CmdAcceptLatency is the number of cycles a command is held
	// pending before the device asserts ready. 0 accepts commands in
	// the cycle they appear.
	CmdAcceptLatency uint64 `json:"cmd_accept_latency"`

	// WriteAcceptLatency is the number of cycles a write beat is held
	// pending before the device asserts ready.
	WriteAcceptLatency uint64 `json:"write_accept_latency"`

	// ReadLatency is the number of cycles between read-command
	// acceptance and read data becoming valid. Must be at least 1.
	ReadLatency uint64 `json:"read_latency"`
}

// DefaultTiming returns a Timing with modest DRAM-like values.
func DefaultTiming() Timing {
	return Timing{
		CmdAcceptLatency:   1,
		WriteAcceptLatency: 1,
		ReadLatency:        4,
	}
}

// LoadTiming loads a Timing from a JSON file. Missing fields keep
// their default values.
func LoadTiming(path string) (Timing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Timing{}, fmt.Errorf("failed to read timing file: %w", err)
	}

	timing := DefaultTiming()
	if err := json.Unmarshal(data, &timing); err != nil {
		return Timing{}, fmt.Errorf("failed to parse timing file: %w", err)
	}

	return timing, nil
}

// Save writes the Timing to a JSON file.
func (t Timing) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing file: %w", err)
	}

	return nil
}

// Validate checks that the timing values are usable.
func (t Timing) Validate() error {
	if t.ReadLatency == 0 {
		return fmt.Errorf("read_latency must be > 0")
	}
	return nil
}
