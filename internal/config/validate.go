// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// maxSamples is the largest count whose declared length still fits a byte.
const maxSamples = (255 + 4 - 26) / 4

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	known := false
	for _, v := range humiture.Variants() {
		if v == cfg.Codec.Variant {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("codec.variant %q unknown (have %s)", cfg.Codec.Variant, strings.Join(humiture.Variants(), ", "))
	}

	if cfg.Codec.Samples < 0 || cfg.Codec.Samples > maxSamples {
		return fmt.Errorf("codec.samples must be within 0..%d, got %d", maxSamples, cfg.Codec.Samples)
	}

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}
	if cfg.MQTT.AccelTopic != "" && cfg.MQTT.AccelTopic == cfg.MQTT.FrameTopic {
		return fmt.Errorf("mqtt.accel_topic must differ from mqtt.frame_topic")
	}

	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
