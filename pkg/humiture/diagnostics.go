package humiture

// EventKind classifies a decode condition.
type EventKind int

const (
	// BadHeader: magic bytes absent.
	BadHeader EventKind = iota + 1
	// LengthMismatch: declared length disagrees with the buffer.
	LengthMismatch
	// SampleCount: the caller asked for more samples than the frame holds.
	SampleCount
	// ChecksumMismatch: only reported when checksum verification is enabled.
	ChecksumMismatch
	// OutOfRange: a sample fell outside the physical domain.
	OutOfRange
)

func (k EventKind) String() string {
	switch k {
	case BadHeader:
		return "bad_header"
	case LengthMismatch:
		return "length_mismatch"
	case SampleCount:
		return "sample_count"
	case ChecksumMismatch:
		return "checksum_mismatch"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Event describes one condition met while decoding. Expected and Actual are
// set for LengthMismatch (declared vs. total length) and SampleCount
// (required vs. available bytes). Reading and Kept are set for OutOfRange.
type Event struct {
	Kind     EventKind
	Err      error
	Expected int
	Actual   int
	Reading  *Reading
	Kept     bool
}

// Diagnostics receives decode events. Implementations must be safe for
// concurrent use when the codec is shared.
type Diagnostics interface {
	Report(Event)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(Event)

// Report implements Diagnostics.
func (f DiagnosticsFunc) Report(ev Event) { f(ev) }

// Discard drops every event.
var Discard Diagnostics = DiagnosticsFunc(func(Event) {})
