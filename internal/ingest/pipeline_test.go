package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/LogicPi-cn/lgp-iot-db/internal/config"
	"github.com/LogicPi-cn/lgp-iot-db/internal/store"
	"github.com/LogicPi-cn/lgp-iot-db/internal/testutil"
	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

var reference = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

type memorySink struct {
	batches [][]humiture.Reading
	err     error
}

func (m *memorySink) Write(_ context.Context, readings []humiture.Reading) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, readings)
	return nil
}

type memoryAccel struct {
	samples []store.AccelReading
}

func (m *memoryAccel) WriteAccel(_ context.Context, samples []store.AccelReading) error {
	m.samples = append(m.samples, samples...)
	return nil
}

func newPipeline(t *testing.T, samples int, sinks ...Sink) *Pipeline {
	t.Helper()
	codec, err := humiture.New(humiture.Options{Clock: humiture.FixedClock(reference)})
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	return NewPipeline(codec, samples, log, sinks...)
}

func TestHandleFrameInfersSamples(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	p := newPipeline(t, 0, a, b)

	n, err := p.HandleFrame(context.Background(), testutil.LoadFrame(t, "frames/twelve_samples.hex"))
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Len(t, a.batches, 1)
	require.Len(t, b.batches, 1)
	require.Len(t, a.batches[0], 10)
	require.Equal(t, uint64(0xE85F0022005700AA), a.batches[0][0].DeviceID)

	n, err = p.HandleFrame(context.Background(), testutil.LoadFrame(t, "frames/twenty_four_samples.hex"))
	require.NoError(t, err)
	require.Equal(t, 24, n)
}

func TestHandleFrameConfiguredSamples(t *testing.T) {
	sink := &memorySink{}
	p := newPipeline(t, 1, sink)

	raw := humiture.Encode(humiture.Reading{Timestamp: reference, SerialNumber: 1, DeviceID: 2, Temperature: 21.5, Humidity: 40})
	n, err := p.HandleFrame(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 21.5, sink.batches[0][0].Temperature)

	_, err = newPipeline(t, 24, sink).HandleFrame(context.Background(), raw)
	require.ErrorIs(t, err, humiture.ErrSampleCount)
}

func TestHandleFrameRejects(t *testing.T) {
	sink := &memorySink{}
	p := newPipeline(t, 0, sink)
	ctx := context.Background()

	_, err := p.HandleFrame(ctx, []byte{0x5A, 0xA5, 0x01})
	require.ErrorIs(t, err, humiture.ErrLengthMismatch)

	raw := humiture.Encode(humiture.Reading{Timestamp: reference})
	raw[0] = 0x00
	_, err = p.HandleFrame(ctx, raw)
	require.ErrorIs(t, err, humiture.ErrBadHeader)
	require.Empty(t, sink.batches)
}

func TestHandleFrameAllDropped(t *testing.T) {
	sink := &memorySink{}
	p := newPipeline(t, 0, sink)

	raw := humiture.Encode(humiture.Reading{Timestamp: reference, GroupID: 3, Temperature: 150, Humidity: 10})
	n, err := p.HandleFrame(context.Background(), raw)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, sink.batches)
}

func TestHandleFrameSinkError(t *testing.T) {
	p := newPipeline(t, 0, &memorySink{err: errors.New("pool closed")})
	_, err := p.HandleFrame(context.Background(), testutil.LoadFrame(t, "frames/twenty_four_samples.hex"))
	require.ErrorContains(t, err, "pool closed")
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var _ mqtt.Message = fakeMessage{}

type fakeToken struct {
	mqtt.Token
	err error
}

func (f fakeToken) Wait() bool   { return true }
func (f fakeToken) Error() error { return f.err }

type fakeClient struct {
	mqtt.Client
	handlers map[string]mqtt.MessageHandler
	err      error
}

func (f *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	if f.handlers == nil {
		f.handlers = map[string]mqtt.MessageHandler{}
	}
	f.handlers[topic] = cb
	return fakeToken{err: f.err}
}

func TestSubscriberHandlers(t *testing.T) {
	sink := &memorySink{}
	accel := &memoryAccel{}
	log, hook := test.NewNullLogger()
	cfg := config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", FrameTopic: "site/+/frames", AccelTopic: "site/+/adxl"}
	s := NewSubscriber(cfg, newPipeline(t, 0, sink), accel, log)

	client := &fakeClient{}
	require.NoError(t, s.subscribe(client))
	require.Len(t, client.handlers, 2)
	onFrame := client.handlers["site/+/frames"]
	onAccel := client.handlers["site/+/adxl"]
	require.NotNil(t, onFrame)
	require.NotNil(t, onAccel)

	onFrame(nil, fakeMessage{topic: "site/a/frames", payload: testutil.LoadFrame(t, "frames/twenty_four_samples.hex")})
	onFrame(nil, fakeMessage{topic: "site/b/frames", payload: testutil.LoadFrame(t, "frames/twelve_samples.hex")})
	require.Len(t, sink.batches, 2)

	onAccel(nil, fakeMessage{topic: "site/a/adxl", payload: []byte(`{"device_id":9999,"ts":"2024-03-09T14:05:00Z","x":0.1,"y":-0.2,"z":0.98,"t":24.5,"bat":87}`)})
	require.Equal(t, []store.AccelReading{{DeviceID: 9999, Timestamp: reference, X: 0.1, Y: -0.2, Z: 0.98, T: 24.5, Bat: 87}}, accel.samples)

	onFrame(nil, fakeMessage{topic: "site/a/frames", payload: []byte{0x00}})
	require.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	require.Equal(t, "frame rejected", hook.LastEntry().Message)
	require.Equal(t, "site/a/frames", hook.LastEntry().Data["topic"])

	onAccel(nil, fakeMessage{topic: "site/a/adxl", payload: []byte(`{`)})
	require.Equal(t, "accel payload rejected", hook.LastEntry().Message)
}

func TestSubscriberSkipsAccelWithoutWriter(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", FrameTopic: "humiture/frames", AccelTopic: "adxl/samples"}
	s := NewSubscriber(cfg, newPipeline(t, 0), nil, log)

	client := &fakeClient{}
	require.NoError(t, s.subscribe(client))
	require.Len(t, client.handlers, 1)

	client = &fakeClient{err: errors.New("not authorized")}
	require.ErrorContains(t, s.subscribe(client), "humiture/frames")
}

func TestDecodeAccelDefaultsTimestamp(t *testing.T) {
	a, err := decodeAccel([]byte(`{"device_id":1,"x":1}`))
	require.NoError(t, err)
	require.False(t, a.Timestamp.IsZero())
	require.Equal(t, int32(1), a.DeviceID)
}
