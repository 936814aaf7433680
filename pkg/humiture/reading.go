package humiture

import (
	"fmt"
	"time"
)

// Physical domain accepted by the decoder.
const (
	MinTemperature = -40.0
	MaxTemperature = 100.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Reading is one temperature/humidity sample of one device.
type Reading struct {
	Timestamp    time.Time `json:"ts"`
	SerialNumber uint32    `json:"sn"`
	DeviceID     uint64    `json:"device_id"`
	GroupID      uint8     `json:"group_id"`
	TypeID       uint8     `json:"type_id"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
}

// String renders the reading the way device logs have always shown it.
func (r Reading) String() string {
	return fmt.Sprintf("HumitureData { sn: 0x%08X, id: 0x%016X, group: 0x%02X, type: 0x%02X, ts: %s, t: %g℃, h: %g%% }",
		r.SerialNumber, r.DeviceID, r.GroupID, r.TypeID, r.Timestamp.Format(time.RFC3339), r.Temperature, r.Humidity)
}

// InRange reports whether both values lie inside the physical domain.
func (r Reading) InRange() bool {
	return r.Temperature >= MinTemperature && r.Temperature <= MaxTemperature &&
		r.Humidity >= MinHumidity && r.Humidity <= MaxHumidity
}

// IsTestGroup reports whether the reading belongs to group 0 / type 0,
// which carries synthetic data.
func (r Reading) IsTestGroup() bool {
	return r.GroupID == 0 && r.TypeID == 0
}

// DeviceIDHex is the 16-digit form used by string-ID deployments.
func (r Reading) DeviceIDHex() string {
	return fmt.Sprintf("%016x", r.DeviceID)
}

// SerialHex is the 8-digit form used by string-ID deployments.
func (r Reading) SerialHex() string {
	return fmt.Sprintf("%08x", r.SerialNumber)
}
