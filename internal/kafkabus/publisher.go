// Package kafkabus forwards decoded readings to a Kafka topic.
package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// HeaderBatchID groups the messages produced from one frame.
const HeaderBatchID = "batch-id"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes readings as JSON messages keyed by device id.
type Publisher struct {
	w messageWriter
}

// NewPublisher returns a synchronous publisher for topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

// Write publishes readings. All messages share one batch id.
func (p *Publisher) Write(ctx context.Context, readings []humiture.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	msgs := make([]kafka.Message, 0, len(readings))
	for _, r := range readings {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(r.DeviceIDHex()),
			Value:   value,
			Headers: []kafka.Header{{Key: HeaderBatchID, Value: []byte(batchID)}},
		})
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }
