package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/LogicPi-cn/lgp-iot-db/internal/config"
	"github.com/LogicPi-cn/lgp-iot-db/internal/store"
)

const (
	connectTimeout = 10 * time.Second
	writeTimeout   = 5 * time.Second
	disconnectMs   = 250
)

// Subscriber feeds MQTT messages into the pipeline.
type Subscriber struct {
	cfg      config.MQTTConfig
	pipeline *Pipeline
	accel    AccelWriter
	client   mqtt.Client
	log      *logrus.Entry
}

// NewSubscriber prepares a paho client. accel may be nil when no
// accelerometer topic is configured.
func NewSubscriber(cfg config.MQTTConfig, pipeline *Pipeline, accel AccelWriter, log logrus.FieldLogger) *Subscriber {
	s := &Subscriber{
		cfg:      cfg,
		pipeline: pipeline,
		accel:    accel,
		log:      log.WithField("component", "mqtt"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			if err := s.subscribe(c); err != nil {
				s.log.WithError(err).Error("subscribe failed")
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.WithError(err).Warn("connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. Subscriptions are (re)established by the
// connect handler.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timeout", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", s.cfg.Broker, err)
	}
	s.log.WithField("broker", s.cfg.Broker).Info("connected")
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	s.client.Disconnect(disconnectMs)
}

// subscribe registers one handler per filter, so wildcard topics such as
// site/+/frames reach the right handler.
func (s *Subscriber) subscribe(c mqtt.Client) error {
	if err := wait(c.Subscribe(s.cfg.FrameTopic, s.cfg.QoS, s.onFrame)); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.FrameTopic, err)
	}
	if s.cfg.AccelTopic != "" && s.accel != nil {
		if err := wait(c.Subscribe(s.cfg.AccelTopic, s.cfg.QoS, s.onAccel)); err != nil {
			return fmt.Errorf("subscribe %s: %w", s.cfg.AccelTopic, err)
		}
	}
	return nil
}

func wait(token mqtt.Token) error {
	token.Wait()
	return token.Error()
}

func (s *Subscriber) onFrame(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	s.handleFrame(ctx, msg)
}

func (s *Subscriber) onAccel(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	s.handleAccel(ctx, msg)
}

func (s *Subscriber) handleFrame(ctx context.Context, msg mqtt.Message) {
	n, err := s.pipeline.HandleFrame(ctx, msg.Payload())
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"topic": msg.Topic(), "bytes": len(msg.Payload())}).Error("frame rejected")
		return
	}
	s.log.WithField("readings", n).Debug("frame handled")
}

func (s *Subscriber) handleAccel(ctx context.Context, msg mqtt.Message) {
	if s.accel == nil {
		return
	}
	sample, err := decodeAccel(msg.Payload())
	if err != nil {
		s.log.WithError(err).Error("accel payload rejected")
		return
	}
	if err := s.accel.WriteAccel(ctx, []store.AccelReading{sample}); err != nil {
		s.log.WithError(err).Error("store accel sample")
	}
}

// decodeAccel parses one accelerometer JSON payload. A missing timestamp is
// replaced with the receive time.
func decodeAccel(payload []byte) (store.AccelReading, error) {
	var a store.AccelReading
	if err := json.Unmarshal(payload, &a); err != nil {
		return store.AccelReading{}, fmt.Errorf("decode accel json: %w", err)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().Truncate(time.Second)
	}
	return a, nil
}
