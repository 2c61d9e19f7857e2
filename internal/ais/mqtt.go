package ais

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	Broker   string // e.g. tcp://broker.example:1883
	ClientID string
	Topic    string
	Username string
	Password string

	ConnectTimeout time.Duration
}

// MQTTSource subscribes to a broker topic carrying the same JSON envelopes as
// the TCP stream, for relays that publish over MQTT instead of a socket.
// Reconnection is delegated to the paho client.
type MQTTSource struct {
	cfg    MQTTConfig
	client mqtt.Client

	started atomic.Bool
	closed  atomic.Bool
}

func NewMQTTSource(cfg MQTTConfig) (*MQTTSource, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "seawatch"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &MQTTSource{cfg: cfg}, nil
}

func (s *MQTTSource) Start(ctx context.Context, onEnvelope func(raw []byte) error) error {
	if s == nil {
		return fmt.Errorf("mqtt source is nil")
	}
	if s.closed.Load() {
		return fmt.Errorf("mqtt source is closed")
	}
	if onEnvelope == nil {
		return fmt.Errorf("mqtt onEnvelope is nil")
	}
	if s.started.Swap(true) {
		return fmt.Errorf("mqtt source already started")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetOrderMatters(false)

	s.client = mqtt.NewClient(opts)
	if tok := s.client.Connect(); tok.WaitTimeout(s.cfg.ConnectTimeout) && tok.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", tok.Error())
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		raw := append([]byte(nil), msg.Payload()...)
		_ = onEnvelope(raw)
	}
	if tok := s.client.Subscribe(s.cfg.Topic, 0, handler); tok.WaitTimeout(s.cfg.ConnectTimeout) && tok.Error() != nil {
		return fmt.Errorf("mqtt subscribe %q: %w", s.cfg.Topic, tok.Error())
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

func (s *MQTTSource) Close() {
	if s == nil {
		return
	}
	if s.closed.Swap(true) {
		return
	}
	if s.client != nil {
		if s.client.IsConnected() {
			_ = s.client.Unsubscribe(s.cfg.Topic)
		}
		s.client.Disconnect(250)
	}
}
