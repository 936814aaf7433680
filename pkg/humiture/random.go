package humiture

import (
	"math"
	"math/rand"
	"time"
)

// Fixed identity of generated readings.
const (
	RandomSerialNumber = 0x00000001
	WaveSerialNumber   = 0x00000002
	RandomDeviceID     = 0x0000111122223333
)

// RandomReading returns a test-group reading stamped at, with temperature in
// [-20, 50) and humidity in [1, 100), both rounded to one decimal.
func RandomReading(rng *rand.Rand, at time.Time) Reading {
	return Reading{
		Timestamp:    at.Truncate(time.Second),
		SerialNumber: RandomSerialNumber,
		DeviceID:     RandomDeviceID,
		Temperature:  tenth(-20 + rng.Float64()*70),
		Humidity:     tenth(1 + rng.Float64()*99),
	}
}

// WaveReading returns a test-group reading on a circle of radius r:
// temperature r*sin(angle), humidity r*cos(angle), angle in degrees.
// Stepping angle produces a sine and cosine trace for dashboards.
func WaveReading(r, angleDeg float64, at time.Time) Reading {
	rad := angleDeg * math.Pi / 180
	return Reading{
		Timestamp:    at.Truncate(time.Second),
		SerialNumber: WaveSerialNumber,
		DeviceID:     RandomDeviceID,
		Temperature:  r * math.Sin(rad),
		Humidity:     r * math.Cos(rad),
	}
}

func tenth(v float64) float64 {
	return math.Floor(v*10) / 10
}
