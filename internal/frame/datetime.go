package frame

import (
	"fmt"
	"time"
)

// EncodeDateTime packs t into year-2000, month, day, hour, minute, second.
// Years past 2255 wrap; that boundary is accepted.
func EncodeDateTime(t time.Time) [6]byte {
	return [6]byte{
		byte(t.Year() - 2000),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
}

// DecodeDateTime unpacks the device-reported date-time in loc.
func DecodeDateTime(b [6]byte, loc *time.Location) (time.Time, error) {
	month, day, hour, minute, second := int(b[1]), int(b[2]), int(b[3]), int(b[4]), int(b[5])
	if month == 0 || month > 12 || day == 0 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid date-time encoding: % X", b[:])
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(2000+int(b[0]), time.Month(month), day, hour, minute, second, 0, loc), nil
}
