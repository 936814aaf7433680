// internal/config/normalize.go
package config

const (
	defaultVariant    = "humiture"
	defaultClientID   = "lgp-iot-db"
	defaultFrameTopic = "humiture/frames"
	defaultKafkaTopic = "humiture.readings"
	defaultHTTPAddr   = ":8080"
	defaultLogLevel   = "info"
)

// Normalize fills defaults. It runs before Validate so validation only sees
// explicit values or defaults.
func Normalize(cfg *Config) {
	if cfg.Codec.Variant == "" {
		cfg.Codec.Variant = defaultVariant
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = defaultClientID
	}
	if cfg.MQTT.FrameTopic == "" {
		cfg.MQTT.FrameTopic = defaultFrameTopic
	}
	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = defaultKafkaTopic
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}
