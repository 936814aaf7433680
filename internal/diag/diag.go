package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// Logger writes decode events to logrus.
type Logger struct {
	Log logrus.FieldLogger
}

// Report implements humiture.Diagnostics.
func (l Logger) Report(ev humiture.Event) {
	entry := l.Log.WithField("event", ev.Kind.String())
	if ev.Err != nil {
		entry = entry.WithError(ev.Err)
	}
	switch ev.Kind {
	case humiture.BadHeader:
		entry.Error("bad header")
	case humiture.LengthMismatch:
		entry.WithFields(logrus.Fields{"declared": ev.Expected, "total": ev.Actual}).Error("length error")
	case humiture.SampleCount:
		entry.WithFields(logrus.Fields{"required": ev.Expected, "total": ev.Actual}).Error("sample count exceeds frame")
	case humiture.ChecksumMismatch:
		entry.Error("checksum mismatch")
	case humiture.OutOfRange:
		if ev.Reading == nil {
			entry.Warn("overflow")
			return
		}
		if ev.Kept {
			entry.Debugf("%s --- kept (test group)", ev.Reading)
			return
		}
		entry.Warnf("%s --- Overflow!", ev.Reading)
	default:
		entry.Warn("unknown decode event")
	}
}

// Metrics counts decode events by kind.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics registers the event counter with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "humiture",
		Name:      "decode_events_total",
		Help:      "Decode conditions reported by the frame codec.",
	}, []string{"kind", "kept"})
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &Metrics{events: events}, nil
}

// Report implements humiture.Diagnostics.
func (m *Metrics) Report(ev humiture.Event) {
	kept := "false"
	if ev.Kept {
		kept = "true"
	}
	m.events.WithLabelValues(ev.Kind.String(), kept).Inc()
}

// Counter exposes the counter for one kind, mostly for tests.
func (m *Metrics) Counter(kind humiture.EventKind, kept bool) prometheus.Counter {
	k := "false"
	if kept {
		k = "true"
	}
	return m.events.WithLabelValues(kind.String(), k)
}

// Multi fans an event out to several sinks.
type Multi []humiture.Diagnostics

// Report implements humiture.Diagnostics.
func (m Multi) Report(ev humiture.Event) {
	for _, d := range m {
		if d != nil {
			d.Report(ev)
		}
	}
}
