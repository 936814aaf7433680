package legacy

import (
	"math"

	"github.com/LogicPi-cn/lgp-iot-db/internal/driver"
)

// Name is the canonical variant name.
const Name = "legacy"

func init() {
	driver.Register(Driver{})
}

// Driver implements the first firmware generation, which reported device
// and serial ids as opaque hex strings and sent unsigned samples. Negative
// values cannot be represented, and every out-of-range sample is dropped.
type Driver struct{}

// Name returns the canonical driver name.
func (Driver) Name() string { return Name }

// DecodeSample converts an unsigned fixed-point word to its value.
func (Driver) DecodeSample(word uint16) float64 {
	return float64(word) / 10
}

// EncodeSample truncates v*10 toward zero and saturates into [0, 65535].
func (Driver) EncodeSample(v float64) uint16 {
	scaled := math.Trunc(v * 10)
	switch {
	case math.IsNaN(scaled) || scaled <= 0:
		return 0
	case scaled >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(scaled)
	}
}

// KeepOutOfRange always drops.
func (Driver) KeepOutOfRange(uint8, uint8) bool { return false }
