// Package mqtt streams dashboard display frames to an MQTT broker so that
// external signage can mirror the count-up animations.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/safety-dashboard/internal/board"
	"github.com/couchcryptid/safety-dashboard/internal/config"
	"github.com/couchcryptid/safety-dashboard/internal/observability"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Streamer publishes display states as retained JSON messages, one topic per
// display key. Publish never blocks the caller; frames that do not fit in the
// queue are dropped.
type Streamer struct {
	client  paho.Client
	prefix  string
	qos     byte
	queue   chan board.DisplayState
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient builds a paho client from the MQTT settings of cfg. The client is
// not connected.
func NewClient(cfg *config.Config) paho.Client {
	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)
	return paho.NewClient(opts)
}

// NewStreamer wraps a paho client.
func NewStreamer(client paho.Client, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Streamer {
	return &Streamer{
		client:  client,
		prefix:  cfg.MQTTTopicPrefix,
		qos:     cfg.MQTTQoS,
		queue:   make(chan board.DisplayState, cfg.MQTTQueueSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Connect connects the client to the broker.
func (s *Streamer) Connect(ctx context.Context) error {
	token := s.client.Connect()
	if err := wait(ctx, token, connectTimeout); err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	s.logger.Info("mqtt connected", "topic_prefix", s.prefix)
	return nil
}

// Publish queues a display state for streaming.
func (s *Streamer) Publish(state board.DisplayState) {
	select {
	case s.queue <- state:
	default:
		s.metrics.StreamPublished.WithLabelValues("dropped").Inc()
	}
}

// Run drains the queue until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-s.queue:
			if err := s.send(ctx, state); err != nil {
				s.metrics.StreamPublished.WithLabelValues("error").Inc()
				s.logger.Warn("mqtt publish failed", "display", state.Key, "error", err)
				continue
			}
			s.metrics.StreamPublished.WithLabelValues("success").Inc()
		}
	}
}

func (s *Streamer) send(ctx context.Context, state board.DisplayState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal display state: %w", err)
	}
	token := s.client.Publish(s.Topic(state.Key), s.qos, true, b)
	return wait(ctx, token, publishTimeout)
}

// Topic is the topic a display is published on.
func (s *Streamer) Topic(key string) string {
	return s.prefix + "/" + key
}

// Close disconnects from the broker, allowing in-flight work a short grace
// period.
func (s *Streamer) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !token.WaitTimeout(timeout) {
		return errors.New("timed out waiting for broker")
	}
	return token.Error()
}
