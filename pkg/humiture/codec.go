package humiture

import (
	"errors"
	"time"

	"github.com/LogicPi-cn/lgp-iot-db/internal/driver"
	humituredrv "github.com/LogicPi-cn/lgp-iot-db/internal/driver/humiture"
	_ "github.com/LogicPi-cn/lgp-iot-db/internal/driver/legacy" // register driver
	"github.com/LogicPi-cn/lgp-iot-db/internal/frame"
)

// DefaultVariant is used when Options.Variant is empty.
const DefaultVariant = humituredrv.Name

// Frame-level decode failures. Match with errors.Is.
var (
	ErrBadHeader        = frame.ErrBadHeader
	ErrLengthMismatch   = frame.ErrLengthMismatch
	ErrSampleCount      = frame.ErrSampleCount
	ErrChecksumMismatch = frame.ErrChecksumMismatch
)

// Options configures a Codec.
type Options struct {
	Variant     string
	Clock       Clock
	Diagnostics Diagnostics
	// VerifyChecksum rejects frames whose trailing CRC does not match.
	// Devices always send a valid one, but the decoder historically never
	// checked it, so this stays opt-in.
	VerifyChecksum bool
}

// Codec encodes single-reading frames and decodes multi-reading frames. It
// holds no mutable state and may be shared between goroutines.
type Codec struct {
	drv    driver.Driver
	clock  Clock
	diag   Diagnostics
	verify bool
}

var defaultCodec = mustNew(Options{})

// New builds a codec for the requested variant.
func New(opts Options) (*Codec, error) {
	name := opts.Variant
	if name == "" {
		name = DefaultVariant
	}
	drv, err := driver.Lookup(name)
	if err != nil {
		return nil, err
	}
	c := &Codec{drv: drv, clock: opts.Clock, diag: opts.Diagnostics, verify: opts.VerifyChecksum}
	if c.clock == nil {
		c.clock = SystemClock
	}
	if c.diag == nil {
		c.diag = Discard
	}
	return c, nil
}

func mustNew(opts Options) *Codec {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Variants lists the registered frame variants.
func Variants() []string {
	return driver.Names()
}

// Variant returns the variant name the codec was built for.
func (c *Codec) Variant() string { return c.drv.Name() }

// Encode returns the 30-byte single-reading frame for r. A zero timestamp is
// replaced by the codec clock. Values are truncated, never range-checked.
func (c *Codec) Encode(r Reading) []byte {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = c.clock.Now()
	}
	h := frame.Header{
		DeviceID:     r.DeviceID,
		SerialNumber: r.SerialNumber,
		GroupID:      r.GroupID,
		TypeID:       r.TypeID,
		DateTime:     frame.EncodeDateTime(ts),
	}
	temps := []uint16{c.drv.EncodeSample(r.Temperature)}
	hums := []uint16{c.drv.EncodeSample(r.Humidity)}
	return frame.Build(h, temps, hums, frame.BatteryDefault, 0x00)
}

// Decode parses an n-sample frame. Malformed frames yield an empty result;
// the reason goes to the diagnostics sink.
func (c *Codec) Decode(raw []byte, n int) []Reading {
	readings, _ := c.Parse(raw, n)
	return readings
}

// Parse behaves like Decode but also returns the frame-level error.
// Out-of-range samples are never an error.
func (c *Codec) Parse(raw []byte, n int) ([]Reading, error) {
	if len(raw) == 0 || n <= 0 {
		return nil, nil
	}
	f, err := frame.Parse(raw)
	if err != nil {
		c.reportFrameError(err, len(raw))
		return nil, err
	}
	if err := f.CheckSamples(n); err != nil {
		c.diag.Report(Event{Kind: SampleCount, Err: err, Expected: frame.RequiredSize(n), Actual: len(raw)})
		return nil, err
	}
	if c.verify {
		if err := f.VerifyChecksum(); err != nil {
			c.diag.Report(Event{Kind: ChecksumMismatch, Err: err})
			return nil, err
		}
	}
	return c.samples(f, n), nil
}

func (c *Codec) reportFrameError(err error, total int) {
	if errors.Is(err, frame.ErrBadHeader) {
		c.diag.Report(Event{Kind: BadHeader, Err: err})
		return
	}
	ev := Event{Kind: LengthMismatch, Err: err, Expected: -1, Actual: total}
	var lerr *frame.LengthError
	if errors.As(err, &lerr) {
		ev.Expected = lerr.Declared
	}
	c.diag.Report(ev)
}

// samples walks the sample blocks oldest first. The newest sample is stamped
// one interval before the reference time, not at it.
func (c *Codec) samples(f frame.Frame, n int) []Reading {
	interval := time.Duration(frame.IntervalMinutes(f.IntervalCode())) * time.Minute
	ref := c.clock.Now().Truncate(time.Second)
	out := make([]Reading, 0, n)
	for i := 0; i < n; i++ {
		r := Reading{
			Timestamp:    ref.Add(-time.Duration(n-i) * interval),
			SerialNumber: f.SerialNumber,
			DeviceID:     f.DeviceID,
			GroupID:      f.GroupID,
			TypeID:       f.TypeID,
			Temperature:  c.drv.DecodeSample(f.Temperature(i, n)),
			Humidity:     c.drv.DecodeSample(f.Humidity(i, n)),
		}
		if !r.InRange() {
			kept := c.drv.KeepOutOfRange(f.GroupID, f.TypeID)
			flagged := r
			c.diag.Report(Event{Kind: OutOfRange, Reading: &flagged, Kept: kept})
			if !kept {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Encode uses the default variant and the system clock.
func Encode(r Reading) []byte {
	return defaultCodec.Encode(r)
}

// Decode uses the default variant and the system clock and discards
// diagnostics.
func Decode(raw []byte, n int) []Reading {
	return defaultCodec.Decode(raw, n)
}
