package humiture

import "github.com/LogicPi-cn/lgp-iot-db/internal/driver"

const (
	// Name is the canonical variant name.
	Name = "humiture"

	testGroup = 0
	testType  = 0
)

func init() {
	driver.Register(Driver{})
}

// Driver implements the current firmware variant: samples are signed 16-bit
// values scaled by ten, and out-of-range samples only survive in the test
// group.
type Driver struct{}

// Name returns the canonical driver name.
func (Driver) Name() string { return Name }

// DecodeSample converts a signed fixed-point word to its value.
func (Driver) DecodeSample(word uint16) float64 {
	return float64(int16(word)) / 10
}

// EncodeSample truncates v*10 toward zero.
func (Driver) EncodeSample(v float64) uint16 {
	return uint16(int16(v * 10))
}

// KeepOutOfRange keeps flagged samples for group 0 / type 0 only.
func (Driver) KeepOutOfRange(groupID, typeID uint8) bool {
	return groupID == testGroup && typeID == testType
}
