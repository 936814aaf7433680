package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// dbtx is the subset of *pgxpool.Pool the store needs.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store persists decoded readings in PostgreSQL.
type Store struct {
	db   dbtx
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS humiture_readings (
    id          BIGSERIAL PRIMARY KEY,
    ts          TIMESTAMPTZ NOT NULL,
    sn          BIGINT      NOT NULL,
    device_id   BIGINT      NOT NULL,
    group_id    INT         NOT NULL,
    type_id     INT         NOT NULL,
    temperature REAL        NOT NULL,
    humidity    REAL        NOT NULL
);
CREATE INDEX IF NOT EXISTS humiture_readings_group_ts ON humiture_readings (group_id, ts DESC);
CREATE INDEX IF NOT EXISTS humiture_readings_device_ts ON humiture_readings (device_id, ts);
CREATE INDEX IF NOT EXISTS humiture_readings_sn_ts ON humiture_readings (sn, ts DESC);

CREATE TABLE IF NOT EXISTS adxl_readings (
    id        BIGSERIAL PRIMARY KEY,
    ts        TIMESTAMPTZ NOT NULL,
    device_id INT         NOT NULL,
    x         REAL        NOT NULL,
    y         REAL        NOT NULL,
    z         REAL        NOT NULL,
    t         REAL        NOT NULL,
    bat       REAL        NOT NULL
);
CREATE INDEX IF NOT EXISTS adxl_readings_device_ts ON adxl_readings (device_id, ts DESC);
`

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const insertReadingSQL = `INSERT INTO humiture_readings (ts, sn, device_id, group_id, type_id, temperature, humidity)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

// Write inserts readings in one batch.
func (s *Store) Write(ctx context.Context, readings []humiture.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range readings {
		batch.Queue(insertReadingSQL,
			r.Timestamp,
			int64(r.SerialNumber),
			int64(r.DeviceID),
			int32(r.GroupID),
			int32(r.TypeID),
			float32(r.Temperature),
			float32(r.Humidity),
		)
	}

	res := s.db.SendBatch(ctx, batch)
	defer res.Close()

	for range readings {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
	}
	return nil
}

const selectReadingColumns = `SELECT ts, sn, device_id, group_id, type_id, temperature, humidity FROM humiture_readings `

// ReadingsByGroup returns the newest readings of one deployment group.
func (s *Store) ReadingsByGroup(ctx context.Context, group uint8, limit int) ([]humiture.Reading, error) {
	return s.queryReadings(ctx, selectReadingColumns+`WHERE group_id = $1 ORDER BY ts DESC LIMIT $2`, int32(group), clampLimit(limit))
}

// ReadingsBySerial returns the newest readings of one reporting unit.
func (s *Store) ReadingsBySerial(ctx context.Context, sn uint32, limit int) ([]humiture.Reading, error) {
	return s.queryReadings(ctx, selectReadingColumns+`WHERE sn = $1 ORDER BY ts DESC LIMIT $2`, int64(sn), clampLimit(limit))
}

// ReadingsByDevice returns one device's readings in [from, to], oldest first.
func (s *Store) ReadingsByDevice(ctx context.Context, deviceID uint64, from, to time.Time) ([]humiture.Reading, error) {
	return s.queryReadings(ctx, selectReadingColumns+`WHERE device_id = $1 AND ts BETWEEN $2 AND $3 ORDER BY ts`, int64(deviceID), from, to)
}

func (s *Store) queryReadings(ctx context.Context, sql string, args ...any) ([]humiture.Reading, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]humiture.Reading, 0)
	for rows.Next() {
		var (
			ts               time.Time
			sn, deviceID     int64
			groupID, typeID  int32
			temperature, hum float32
		)
		if err := rows.Scan(&ts, &sn, &deviceID, &groupID, &typeID, &temperature, &hum); err != nil {
			return nil, err
		}
		readings = append(readings, humiture.Reading{
			Timestamp:    ts,
			SerialNumber: uint32(sn),
			DeviceID:     uint64(deviceID),
			GroupID:      uint8(groupID),
			TypeID:       uint8(typeID),
			Temperature:  roundTenth(temperature),
			Humidity:     roundTenth(hum),
		})
	}
	return readings, rows.Err()
}

const (
	defaultLimit = 100
	maxLimit     = 10000
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// REAL columns come back as float32; values only ever carry one decimal.
func roundTenth(v float32) float64 {
	return math.Round(float64(v)*10) / 10
}
