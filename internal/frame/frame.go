package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Layout of a humiture frame, big-endian:
//
//	5A A5 | L | device id (8) | sn (4) | group | type | date (6) |
//	temperature (2n) | humidity (2n) | battery | control | crc8
//
// L counts everything after itself except the trailing checksum, so a frame
// carrying n samples is 26+4n bytes long and L == len-4.
const (
	Magic1 = 0x5A
	Magic2 = 0xA5

	offsetLength   = 2
	offsetDeviceID = 3
	offsetSerial   = 11
	offsetGroup    = 15
	offsetType     = 16
	offsetDate     = 17
	OffsetSamples  = 23

	// ChecksumStart is the first byte covered by the CRC.
	ChecksumStart = offsetDeviceID

	lengthOverhead = 4
	trailerSize    = 3
	sampleSize     = 2

	// BatteryDefault is the battery/status byte written by the encoder.
	BatteryDefault = 0x63
)

var (
	ErrBadHeader        = errors.New("bad header")
	ErrLengthMismatch   = errors.New("length mismatch")
	ErrSampleCount      = errors.New("sample count exceeds frame")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// LengthError reports a declared length that disagrees with the buffer.
type LengthError struct {
	Declared int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("length error: declared %d, total length %d", e.Declared, e.Actual)
}

func (e *LengthError) Unwrap() error { return ErrLengthMismatch }

// Header holds the fixed fields that precede the sample blocks.
type Header struct {
	Length       byte
	DeviceID     uint64
	SerialNumber uint32
	GroupID      uint8
	TypeID       uint8
	DateTime     [6]byte
}

// Frame is a validated view over a raw buffer. Samples are not interpreted
// here because their signedness depends on the variant.
type Frame struct {
	Raw []byte
	Header
}

// Size returns the total frame length for n samples.
func Size(n int) int {
	return OffsetSamples + 2*sampleSize*n + trailerSize
}

// MaxSamples returns the largest sample count a buffer of total bytes can
// physically hold, or -1 when it cannot even hold an empty frame.
func MaxSamples(total int) int {
	if total < Size(0) {
		return -1
	}
	return (total - Size(0)) / (2 * sampleSize)
}

// RequiredSize is Size guarded against overflow; -1 means n is negative or
// no buffer could hold it.
func RequiredSize(n int) int {
	if n < 0 || n > (math.MaxInt-Size(0))/(2*sampleSize) {
		return -1
	}
	return Size(n)
}

// SamplesFor infers the sample count from a total frame length. The codec
// itself never does this; transports that know no better may.
func SamplesFor(total int) (int, bool) {
	body := total - Size(0)
	if body <= 0 || body%(2*sampleSize) != 0 {
		return 0, false
	}
	return body / (2 * sampleSize), true
}

// Parse checks the magic bytes and the declared length and extracts the
// header. It never reads past the end of raw.
func Parse(raw []byte) (Frame, error) {
	if len(raw) < 2 || raw[0] != Magic1 || raw[1] != Magic2 {
		return Frame{}, ErrBadHeader
	}
	if len(raw) < lengthOverhead {
		declared := -1
		if len(raw) > offsetLength {
			declared = int(raw[offsetLength])
		}
		return Frame{}, &LengthError{Declared: declared, Actual: len(raw)}
	}
	length := raw[offsetLength]
	if int(length) != len(raw)-lengthOverhead {
		return Frame{}, &LengthError{Declared: int(length), Actual: len(raw)}
	}
	if len(raw) < OffsetSamples {
		return Frame{}, fmt.Errorf("frame too short for header: %d bytes: %w", len(raw), ErrLengthMismatch)
	}
	f := Frame{
		Raw: raw,
		Header: Header{
			Length:       length,
			DeviceID:     binary.BigEndian.Uint64(raw[offsetDeviceID:offsetSerial]),
			SerialNumber: binary.BigEndian.Uint32(raw[offsetSerial:offsetGroup]),
			GroupID:      raw[offsetGroup],
			TypeID:       raw[offsetType],
		},
	}
	copy(f.DateTime[:], raw[offsetDate:OffsetSamples])
	return f, nil
}

// CheckSamples reports whether the frame physically holds n sample pairs.
func (f Frame) CheckSamples(n int) error {
	if n < 0 || n > MaxSamples(len(f.Raw)) {
		return fmt.Errorf("%w: %d samples need %d bytes, have %d", ErrSampleCount, n, RequiredSize(n), len(f.Raw))
	}
	return nil
}

// Temperature returns the raw i-th temperature word of an n-sample frame.
func (f Frame) Temperature(i, n int) uint16 {
	off := OffsetSamples + sampleSize*i
	return binary.BigEndian.Uint16(f.Raw[off : off+sampleSize])
}

// Humidity returns the raw i-th humidity word of an n-sample frame.
func (f Frame) Humidity(i, n int) uint16 {
	off := OffsetSamples + sampleSize*i + sampleSize*n
	return binary.BigEndian.Uint16(f.Raw[off : off+sampleSize])
}

// ControlOffset returns the position of the sampling-control byte. Devices
// only ship 12 and 24 sample frames; anything else is read as a single
// sample frame.
func ControlOffset(declared byte) int {
	switch declared {
	case 70:
		return 72
	case 118:
		return 120
	default:
		return 28
	}
}

// IntervalCode extracts bits 1-3 of the control byte. Zero is returned when
// the control byte lies outside the buffer.
func (f Frame) IntervalCode() byte {
	off := ControlOffset(f.Length)
	if off >= len(f.Raw) {
		return 0
	}
	return (f.Raw[off] >> 1) & 0x07
}

// IntervalMinutes maps an interval code to minutes: 0 -> 5, ..., 7 -> 40.
func IntervalMinutes(code byte) int {
	return (int(code&0x07) + 1) * 5
}

// Battery returns the battery/status byte of an n-sample frame.
func (f Frame) Battery(n int) byte {
	if n < 0 || n > MaxSamples(len(f.Raw)) {
		return 0
	}
	return f.Raw[OffsetSamples+2*sampleSize*n]
}

// Checksum returns the trailing checksum byte.
func (f Frame) Checksum() byte {
	return f.Raw[len(f.Raw)-1]
}

// VerifyChecksum recomputes the CRC over [3, len-1) and compares it with the
// trailing byte.
func (f Frame) VerifyChecksum() error {
	want := Checksum(f.Raw[ChecksumStart : len(f.Raw)-1])
	if got := f.Checksum(); got != want {
		return fmt.Errorf("%w: frame carries 0x%02X, computed 0x%02X", ErrChecksumMismatch, got, want)
	}
	return nil
}

// Build assembles an n-sample frame from a header and raw sample words.
// The declared length and checksum are computed; h.Length is ignored.
func Build(h Header, temps, hums []uint16, battery, control byte) []byte {
	n := len(temps)
	if len(hums) < n {
		n = len(hums)
	}
	size := Size(n)
	out := make([]byte, size)
	out[0] = Magic1
	out[1] = Magic2
	out[offsetLength] = byte(size - lengthOverhead)
	binary.BigEndian.PutUint64(out[offsetDeviceID:offsetSerial], h.DeviceID)
	binary.BigEndian.PutUint32(out[offsetSerial:offsetGroup], h.SerialNumber)
	out[offsetGroup] = h.GroupID
	out[offsetType] = h.TypeID
	copy(out[offsetDate:OffsetSamples], h.DateTime[:])
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint16(out[OffsetSamples+sampleSize*i:], temps[i])
		binary.BigEndian.PutUint16(out[OffsetSamples+sampleSize*(i+n):], hums[i])
	}
	tail := OffsetSamples + 2*sampleSize*n
	out[tail] = battery
	out[tail+1] = control
	out[tail+2] = Checksum(out[ChecksumStart : tail+2])
	return out
}
