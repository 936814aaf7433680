package frame

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"
	"time"
)

const (
	twelveSampleHex     = "5aa546e85f0022005700aa6c6f6769bd0217051e0d1105010d010e010e001f0110011001ff011000ffffffffff010d02af02af02ae024f027b027a02ff028102ffffffffff02ae34006d"
	twentyFourSampleHex = "5aa576aee6070000001f3b470000000002150b020a020400c200c200c200c200c300c300c300c400c500c600c600c700c700be00bf00bf00c000c100c100c200c300c400c600c602ab02af02b102b202b402b102b402b402af02ae02ac02a502a0029c0296028f028c0282027a026e026d0266025f025d62007c"
)

func TestParse(t *testing.T) {
	raw := decodeHex(t, twelveSampleHex)
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Length != 70 {
		t.Fatalf("declared length mismatch: %d", f.Length)
	}
	if f.DeviceID != 0xE85F0022005700AA {
		t.Fatalf("device id mismatch: %016X", f.DeviceID)
	}
	if f.SerialNumber != 0x6C6F6769 {
		t.Fatalf("serial mismatch: %08X", f.SerialNumber)
	}
	if f.GroupID != 0xBD || f.TypeID != 0x02 {
		t.Fatalf("group/type mismatch: %02X/%02X", f.GroupID, f.TypeID)
	}
	if err := f.CheckSamples(12); err != nil {
		t.Fatalf("CheckSamples: %v", err)
	}
	if got := f.Temperature(0, 12); got != 0x010D {
		t.Fatalf("first temperature word: %04X", got)
	}
	if got := f.Humidity(0, 12); got != 0x02AF {
		t.Fatalf("first humidity word: %04X", got)
	}
	if got := f.Battery(12); got != 0x34 {
		t.Fatalf("battery byte: %02X", got)
	}
	if got := IntervalMinutes(f.IntervalCode()); got != 5 {
		t.Fatalf("interval: %d", got)
	}
}

func TestParseBadHeader(t *testing.T) {
	for _, raw := range [][]byte{
		{0x5A},
		{0xA5, 0x5A, 0x03, 0x00},
		{0x00, 0x00, 0x00, 0x00, 0x00},
		decodeHex(t, "5ba5"+twelveSampleHex[4:]),
	} {
		if _, err := Parse(raw); !errors.Is(err, ErrBadHeader) {
			t.Fatalf("expected ErrBadHeader for % X, got %v", raw, err)
		}
	}
}

func TestParseLengthMismatch(t *testing.T) {
	raw := decodeHex(t, twelveSampleHex)
	_, err := Parse(raw[:len(raw)-1])
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	var lerr *LengthError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LengthError, got %T", err)
	}
	if lerr.Declared != 70 || lerr.Actual != 73 {
		t.Fatalf("unexpected length error: %+v", lerr)
	}
	if _, err := Parse([]byte{Magic1, Magic2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for bare magic, got %v", err)
	}
	if _, err := Parse([]byte{Magic1, Magic2, 0x02, 0x00, 0x00, 0x00}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch for short header, got %v", err)
	}
}

func TestCheckSamplesTooMany(t *testing.T) {
	f, err := Parse(decodeHex(t, twelveSampleHex))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, n := range []int{13, -1, math.MaxInt / 4, math.MaxInt} {
		if err := f.CheckSamples(n); !errors.Is(err, ErrSampleCount) {
			t.Fatalf("CheckSamples(%d): expected ErrSampleCount, got %v", n, err)
		}
		if got := f.Battery(n); got != 0 {
			t.Fatalf("Battery(%d) = %02X, want 0", n, got)
		}
	}
	if got := RequiredSize(math.MaxInt / 4); got != -1 {
		t.Fatalf("RequiredSize overflow = %d", got)
	}
	if got := MaxSamples(74); got != 12 {
		t.Fatalf("MaxSamples(74) = %d", got)
	}
	if got := MaxSamples(10); got != -1 {
		t.Fatalf("MaxSamples(10) = %d", got)
	}
}

func TestSize(t *testing.T) {
	cases := map[int]int{1: 30, 12: 74, 24: 122}
	for n, want := range cases {
		if got := Size(n); got != want {
			t.Fatalf("Size(%d) = %d, want %d", n, got, want)
		}
		if got, ok := SamplesFor(want); !ok || got != n {
			t.Fatalf("SamplesFor(%d) = %d,%v", want, got, ok)
		}
	}
	if _, ok := SamplesFor(31); ok {
		t.Fatalf("SamplesFor(31) should not resolve")
	}
	if _, ok := SamplesFor(26); ok {
		t.Fatalf("SamplesFor(26) should not resolve")
	}
}

func TestControlOffset(t *testing.T) {
	if ControlOffset(70) != 72 || ControlOffset(118) != 120 || ControlOffset(26) != 28 {
		t.Fatalf("unexpected control offsets")
	}
	for code := byte(0); code < 8; code++ {
		if got, want := IntervalMinutes(code), int(code+1)*5; got != want {
			t.Fatalf("IntervalMinutes(%d) = %d, want %d", code, got, want)
		}
	}
}

func TestBuildRoundTrip(t *testing.T) {
	h := Header{DeviceID: 0x0000111122223333, SerialNumber: 1, GroupID: 7, TypeID: 3}
	h.DateTime = EncodeDateTime(time.Date(2024, 3, 9, 14, 5, 59, 0, time.UTC))
	temps := []uint16{250, 251, 252}
	hums := []uint16{500, 501, 502}
	raw := Build(h, temps, hums, BatteryDefault, 0x07<<1)
	if len(raw) != Size(3) {
		t.Fatalf("built %d bytes, want %d", len(raw), Size(3))
	}
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := f.VerifyChecksum(); err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if f.DeviceID != h.DeviceID || f.SerialNumber != 1 || f.GroupID != 7 || f.TypeID != 3 {
		t.Fatalf("header mismatch: %+v", f.Header)
	}
	for i := range temps {
		if f.Temperature(i, 3) != temps[i] || f.Humidity(i, 3) != hums[i] {
			t.Fatalf("sample %d mismatch", i)
		}
	}
	if f.Battery(3) != BatteryDefault {
		t.Fatalf("battery mismatch: %02X", f.Battery(3))
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum([]byte("123456789")); got != 0xA1 {
		t.Fatalf("CRC-8/MAXIM check value: 0x%02X", got)
	}
	for _, s := range []string{twelveSampleHex, twentyFourSampleHex} {
		f, err := Parse(decodeHex(t, s))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := f.VerifyChecksum(); err != nil {
			t.Fatalf("device frame checksum: %v", err)
		}
	}
}

func TestChecksumBitFlip(t *testing.T) {
	raw := decodeHex(t, twelveSampleHex)
	for _, pos := range []int{ChecksumStart, 20, 40, len(raw) - 2} {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), raw...)
			flipped[pos] ^= 1 << bit
			f, err := Parse(flipped)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if err := f.VerifyChecksum(); !errors.Is(err, ErrChecksumMismatch) {
				t.Fatalf("flip at %d bit %d not detected", pos, bit)
			}
		}
	}
}

func TestDateTime(t *testing.T) {
	ts := time.Date(2023, 5, 30, 13, 17, 5, 0, time.UTC)
	b := EncodeDateTime(ts)
	if b != [6]byte{23, 5, 30, 13, 17, 5} {
		t.Fatalf("encoded date: % X", b[:])
	}
	got, err := DecodeDateTime(b, time.UTC)
	if err != nil {
		t.Fatalf("DecodeDateTime: %v", err)
	}
	if !got.Equal(ts) {
		t.Fatalf("decoded %v, want %v", got, ts)
	}
	if _, err := DecodeDateTime([6]byte{23, 13, 1, 0, 0, 0}, time.UTC); err == nil {
		t.Fatalf("expected error for month 13")
	}

	f, err := Parse(decodeHex(t, twentyFourSampleHex))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reported, err := DecodeDateTime(f.DateTime, time.UTC)
	if err != nil {
		t.Fatalf("DecodeDateTime: %v", err)
	}
	if want := time.Date(2021, 11, 2, 10, 2, 4, 0, time.UTC); !reported.Equal(want) {
		t.Fatalf("reported %v, want %v", reported, want)
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}
