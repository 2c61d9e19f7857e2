// Package disseminator republishes bus events to an MQTT broker so chart
// plotters and shore-side consumers can pick them up without touching the
// ingestion path.
package disseminator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"seawatch/internal/ais"
	"seawatch/internal/bus"
	"seawatch/internal/nav"
)

type Config struct {
	Broker   string // e.g. tcp://broker.example:1883
	ClientID string
	Username string
	Password string

	// TopicPrefix is prepended to nav/targets/warnings.
	TopicPrefix string

	ConnectTimeout time.Duration
}

type Disseminator struct {
	cfg    Config
	bus    *bus.Bus
	client mqtt.Client

	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

func New(cfg Config, b *bus.Bus) (*Disseminator, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("disseminator broker is required")
	}
	if b == nil {
		return nil, fmt.Errorf("disseminator bus is nil")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "seawatch-out"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "seawatch"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Disseminator{cfg: cfg, bus: b, done: make(chan struct{})}, nil
}

// Start connects to the broker and pumps bus events until ctx is cancelled.
func (d *Disseminator) Start(ctx context.Context) error {
	if d == nil {
		return fmt.Errorf("disseminator is nil")
	}
	if d.closed.Load() {
		return fmt.Errorf("disseminator is closed")
	}
	if d.started.Swap(true) {
		return fmt.Errorf("disseminator already started")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(d.cfg.Broker).
		SetClientID(d.cfg.ClientID).
		SetUsername(d.cfg.Username).
		SetPassword(d.cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(d.cfg.ConnectTimeout).
		SetCleanSession(true)

	d.client = mqtt.NewClient(opts)
	if tok := d.client.Connect(); tok.WaitTimeout(d.cfg.ConnectTimeout) && tok.Error() != nil {
		return fmt.Errorf("disseminator connect: %w", tok.Error())
	}

	sub := d.bus.Subscribe(bus.TopicNavSnapshot, bus.TopicTargets, bus.TopicWarnings)
	go d.pump(ctx, sub)
	return nil
}

func (d *Disseminator) pump(ctx context.Context, sub bus.Subscription) {
	defer close(d.done)
	defer d.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			d.dispatch(msg)
		}
	}
}

// dispatch routes by payload type; the bus carries one concrete type per
// topic, so the type switch is the topic.
func (d *Disseminator) dispatch(msg any) {
	switch m := msg.(type) {
	case nav.View:
		d.publish("nav", m)
	case ais.Target:
		d.publish(fmt.Sprintf("targets/%d", m.MMSI), m)
	case []ais.Target:
		d.publish("warnings", m)
	}
}

func (d *Disseminator) publish(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	tok := d.client.Publish(d.cfg.TopicPrefix+"/"+topic, 0, false, b)
	_ = tok.WaitTimeout(d.cfg.ConnectTimeout)
}

func (d *Disseminator) Close() {
	if d == nil {
		return
	}
	if d.closed.Swap(true) {
		return
	}
	if d.started.Load() {
		<-d.done
	}
	if d.client != nil {
		d.client.Disconnect(250)
	}
}
