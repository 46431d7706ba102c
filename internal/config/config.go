package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// DatasetPath overrides the embedded regional dataset.
	DatasetPath string `env:"DATASET_PATH"`

	// DisplayStyle is the count-up preset of every dashboard display.
	DisplayStyle string `env:"DISPLAY_STYLE" envDefault:"rolling"`
	// FrameInterval is how often server-side displays advance.
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"50ms"`
	// RenderCacheSize is how many /api/countup renders are kept.
	RenderCacheSize int `env:"RENDER_CACHE_SIZE" envDefault:"256"`

	// Region updates from Kafka.
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaUpdatesTopic  string        `env:"KAFKA_UPDATES_TOPIC" envDefault:"region-safety-updates"`
	KafkaGroupID       string        `env:"KAFKA_GROUP_ID" envDefault:"safety-dashboard"`
	BatchSize          int           `env:"BATCH_SIZE" envDefault:"50"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL" envDefault:"500ms"`

	// Display streaming to MQTT.
	MQTTEnabled     bool   `env:"MQTT_ENABLED" envDefault:"false"`
	MQTTBroker      string `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID" envDefault:"safety-dashboard"`
	MQTTUsername    string `env:"MQTT_USERNAME"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"dashboard"`
	MQTTQoS         uint8  `env:"MQTT_QOS" envDefault:"0"`
	MQTTQueueSize   int    `env:"MQTT_QUEUE_SIZE" envDefault:"256"`
}

const maxBatchSize = 1000

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.FrameInterval <= 0 {
		return errors.New("FRAME_INTERVAL must be positive")
	}
	if c.RenderCacheSize <= 0 {
		return errors.New("RENDER_CACHE_SIZE must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaUpdatesTopic == "" {
			return errors.New("KAFKA_UPDATES_TOPIC is required")
		}
		if c.BatchSize <= 0 || c.BatchSize > maxBatchSize {
			return fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
		}
		if c.BatchFlushInterval <= 0 {
			return errors.New("BATCH_FLUSH_INTERVAL must be positive")
		}
	}

	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return errors.New("MQTT_ENABLED is true but MQTT_BROKER is not set")
		}
		if c.MQTTQoS > 2 {
			return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTTQoS)
		}
		if c.MQTTQueueSize <= 0 {
			return errors.New("MQTT_QUEUE_SIZE must be positive")
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
