package humiture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/LogicPi-cn/lgp-iot-db/internal/frame"
)

// Result captures the outcome of AnalyzeHex.
type Result struct {
	Variant         string    `json:"variant"`
	RawHex          string    `json:"raw_hex"`
	ByteCount       int       `json:"byte_count"`
	Samples         int       `json:"samples"`
	DeviceID        string    `json:"device_id,omitempty"`
	SerialNumber    string    `json:"sn,omitempty"`
	GroupID         uint8     `json:"group_id"`
	TypeID          uint8     `json:"type_id"`
	ReportedAt      time.Time `json:"reported_at"`
	IntervalMinutes int       `json:"interval_minutes,omitempty"`
	Battery         byte      `json:"battery"`
	Checksum        string    `json:"checksum,omitempty"`
	ChecksumValid   bool      `json:"checksum_valid"`
	Readings        []Reading `json:"readings"`
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("variant: %s bytes:%d raw:%s (marshal error: %v)", r.Variant, r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// AnalyzeHex decodes a hex frame with default options.
func AnalyzeHex(raw string) (Result, error) {
	return AnalyzeHexWithOptions(raw, AnalyzeOptions{})
}

// AnalyzeHexWithOptions decodes a hex frame and reports header details
// alongside the kept readings. When opts.Samples is zero the sample count is
// inferred from the frame length.
func AnalyzeHexWithOptions(raw string, opts AnalyzeOptions) (Result, error) {
	codec, err := New(opts.codecOptions())
	if err != nil {
		return Result{}, err
	}
	data, err := DecodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	return analyze(codec, data, opts)
}

// AnalyzeBytes is AnalyzeHexWithOptions for an already decoded buffer.
func AnalyzeBytes(data []byte, opts AnalyzeOptions) (Result, error) {
	codec, err := New(opts.codecOptions())
	if err != nil {
		return Result{}, err
	}
	return analyze(codec, data, opts)
}

func analyze(codec *Codec, data []byte, opts AnalyzeOptions) (Result, error) {
	result := Result{
		Variant:   codec.Variant(),
		RawHex:    strings.ToUpper(hex.EncodeToString(data)),
		ByteCount: len(data),
		Readings:  []Reading{},
	}
	n := opts.Samples
	if n < 0 {
		return result, fmt.Errorf("%w: negative sample count %d", ErrSampleCount, n)
	}
	if n == 0 {
		inferred, ok := frame.SamplesFor(len(data))
		if !ok {
			inferred = 1
		}
		n = inferred
	}
	result.Samples = n

	readings, err := codec.Parse(data, n)
	if err != nil {
		return result, err
	}
	if len(data) == 0 {
		return result, fmt.Errorf("empty frame")
	}
	f, err := frame.Parse(data)
	if err != nil {
		return result, err
	}
	result.DeviceID = fmt.Sprintf("%016X", f.DeviceID)
	result.SerialNumber = fmt.Sprintf("%08X", f.SerialNumber)
	result.GroupID = f.GroupID
	result.TypeID = f.TypeID
	if ts, err := frame.DecodeDateTime(f.DateTime, opts.location()); err == nil {
		result.ReportedAt = ts
	}
	result.IntervalMinutes = frame.IntervalMinutes(f.IntervalCode())
	result.Battery = f.Battery(n)
	result.Checksum = fmt.Sprintf("0x%02X", f.Checksum())
	result.ChecksumValid = f.VerifyChecksum() == nil
	result.Readings = append(result.Readings, readings...)
	return result, nil
}

// DecodeHex parses a hex frame, ignoring whitespace, '|' and '_' separators
// and an optional 0x prefix.
func DecodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex frame must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
