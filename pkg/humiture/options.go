package humiture

import "time"

// AnalyzeOptions configures AnalyzeHex.
type AnalyzeOptions struct {
	Variant        string
	Samples        int
	VerifyChecksum bool
	// Reference replaces the wall clock as the decode reference time.
	Reference   time.Time
	Location    *time.Location
	Diagnostics Diagnostics
}

func (opts AnalyzeOptions) codecOptions() Options {
	out := Options{
		Variant:        opts.Variant,
		Diagnostics:    opts.Diagnostics,
		VerifyChecksum: opts.VerifyChecksum,
	}
	if !opts.Reference.IsZero() {
		out.Clock = FixedClock(opts.Reference)
	}
	return out
}

func (opts AnalyzeOptions) location() *time.Location {
	if opts.Location != nil {
		return opts.Location
	}
	if !opts.Reference.IsZero() {
		return opts.Reference.Location()
	}
	return time.Local
}
