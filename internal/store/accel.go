package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// AccelReading is one ADXL355 accelerometer sample. These arrive as JSON,
// not as binary frames.
type AccelReading struct {
	DeviceID  int32     `json:"device_id"`
	Timestamp time.Time `json:"ts"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	T         float64   `json:"t"`
	Bat       float64   `json:"bat"`
}

const insertAccelSQL = `INSERT INTO adxl_readings (ts, device_id, x, y, z, t, bat)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

// WriteAccel inserts accelerometer samples in one batch.
func (s *Store) WriteAccel(ctx context.Context, samples []AccelReading) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range samples {
		batch.Queue(insertAccelSQL, a.Timestamp, a.DeviceID, a.X, a.Y, a.Z, a.T, a.Bat)
	}

	res := s.db.SendBatch(ctx, batch)
	defer res.Close()

	for range samples {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("insert accel sample: %w", err)
		}
	}
	return nil
}

// AccelByDevice returns the newest samples of one accelerometer.
func (s *Store) AccelByDevice(ctx context.Context, deviceID int32, limit int) ([]AccelReading, error) {
	rows, err := s.db.Query(ctx, `SELECT ts, device_id, x, y, z, t, bat FROM adxl_readings
WHERE device_id = $1 ORDER BY ts DESC LIMIT $2`, deviceID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]AccelReading, 0)
	for rows.Next() {
		var a AccelReading
		if err := rows.Scan(&a.Timestamp, &a.DeviceID, &a.X, &a.Y, &a.Z, &a.T, &a.Bat); err != nil {
			return nil, err
		}
		samples = append(samples, a)
	}
	return samples, rows.Err()
}
