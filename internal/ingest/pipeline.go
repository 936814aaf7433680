// Package ingest turns raw frames into stored readings.
package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LogicPi-cn/lgp-iot-db/internal/frame"
	"github.com/LogicPi-cn/lgp-iot-db/internal/store"
	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// Sink receives the kept readings of one frame.
type Sink interface {
	Write(ctx context.Context, readings []humiture.Reading) error
}

// AccelWriter persists accelerometer samples.
type AccelWriter interface {
	WriteAccel(ctx context.Context, samples []store.AccelReading) error
}

// Pipeline decodes frames and fans the readings out to sinks.
type Pipeline struct {
	codec   *humiture.Codec
	sinks   []Sink
	samples int
	log     *logrus.Entry
}

// NewPipeline builds a pipeline. samples == 0 infers the count per frame.
func NewPipeline(codec *humiture.Codec, samples int, log logrus.FieldLogger, sinks ...Sink) *Pipeline {
	return &Pipeline{
		codec:   codec,
		sinks:   sinks,
		samples: samples,
		log:     log.WithField("component", "ingest"),
	}
}

// HandleFrame decodes raw and writes the readings to every sink. It returns
// the number of readings written.
func (p *Pipeline) HandleFrame(ctx context.Context, raw []byte) (int, error) {
	n := p.samples
	if n == 0 {
		inferred, ok := frame.SamplesFor(len(raw))
		if !ok {
			return 0, fmt.Errorf("cannot infer sample count from %d bytes: %w", len(raw), humiture.ErrLengthMismatch)
		}
		n = inferred
	}

	readings, err := p.codec.Parse(raw, n)
	if err != nil {
		return 0, err
	}
	if len(readings) == 0 {
		return 0, nil
	}

	for _, s := range p.sinks {
		if err := s.Write(ctx, readings); err != nil {
			return 0, fmt.Errorf("sink %T: %w", s, err)
		}
	}
	p.log.WithFields(logrus.Fields{
		"device_id": readings[0].DeviceIDHex(),
		"sn":        readings[0].SerialHex(),
		"readings":  len(readings),
	}).Debug("frame stored")
	return len(readings), nil
}
