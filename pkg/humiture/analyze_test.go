package humiture

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LogicPi-cn/lgp-iot-db/internal/testutil"
)

func TestDecodeHex(t *testing.T) {
	raw := " |5AA5_1A00 0000| "
	data, err := DecodeHex(raw)
	require.NoError(t, err)
	require.Len(t, data, 6)

	data, err = DecodeHex("0x5aa5")
	require.NoError(t, err)
	require.Equal(t, []byte{0x5A, 0xA5}, data)
}

func TestDecodeHexOddLength(t *testing.T) {
	_, err := DecodeHex("ABC")
	require.Error(t, err)
}

func TestAnalyzeHexTwelveSamples(t *testing.T) {
	hexStr := testutil.LoadHex(t, "frames/twelve_samples.hex")
	result, err := AnalyzeHexWithOptions(hexStr, AnalyzeOptions{Reference: reference})
	require.NoError(t, err)
	require.Equal(t, "humiture", result.Variant)
	require.Equal(t, 74, result.ByteCount)
	require.Equal(t, 12, result.Samples, "sample count inferred from length")
	require.Equal(t, "E85F0022005700AA", result.DeviceID)
	require.Equal(t, "6C6F6769", result.SerialNumber)
	require.Equal(t, "0x6D", result.Checksum)
	require.True(t, result.ChecksumValid)
	require.True(t, result.ReportedAt.Equal(time.Date(2023, 5, 30, 13, 17, 5, 0, time.UTC)))
	require.Len(t, result.Readings, 10)
	require.Equal(t, strings.ToUpper(hexStr), result.RawHex)
	require.Contains(t, result.String(), `"device_id": "E85F0022005700AA"`)
}

func TestAnalyzeHexSingleReading(t *testing.T) {
	raw := Encode(Reading{Timestamp: reference, SerialNumber: 1, DeviceID: 0x0000111122223333, Temperature: 21.3, Humidity: 45.7})
	result, err := AnalyzeBytes(raw, AnalyzeOptions{Reference: reference})
	require.NoError(t, err)
	require.Equal(t, 1, result.Samples)
	require.Equal(t, byte(0x63), result.Battery)
	require.Equal(t, 5, result.IntervalMinutes)
	require.Len(t, result.Readings, 1)
}

func TestAnalyzeHexErrors(t *testing.T) {
	_, err := AnalyzeHex("A55A1A")
	require.ErrorIs(t, err, ErrBadHeader)

	_, err = AnalyzeHex("5AA51A00")
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = AnalyzeHex("")
	require.Error(t, err)

	_, err = AnalyzeHexWithOptions("5AA5", AnalyzeOptions{Variant: "nope"})
	require.Error(t, err)
}

func TestAnalyzeNegativeSamples(t *testing.T) {
	twelve := testutil.LoadFrame(t, "frames/twelve_samples.hex")
	_, err := AnalyzeBytes(twelve, AnalyzeOptions{Samples: -10, Reference: reference})
	require.ErrorIs(t, err, ErrSampleCount)

	_, err = AnalyzeHexWithOptions(testutil.LoadHex(t, "frames/twelve_samples.hex"), AnalyzeOptions{Samples: -1})
	require.ErrorIs(t, err, ErrSampleCount)

	_, err = AnalyzeBytes(twelve, AnalyzeOptions{Samples: math.MaxInt / 4, Reference: reference})
	require.ErrorIs(t, err, ErrSampleCount)
}
