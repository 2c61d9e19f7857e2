package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"seawatch/internal/ais"
	"seawatch/internal/feed"
)

type Config struct {
	Feed         FeedConfig         `yaml:"feed"`
	AIS          AISConfig          `yaml:"ais"`
	Engine       EngineConfig       `yaml:"engine"`
	Web          WebConfig          `yaml:"web"`
	Disseminator DisseminatorConfig `yaml:"disseminator"`
}

// FeedConfig is the instrument stream: tcp, udp, or serial.
type FeedConfig struct {
	Type   string `yaml:"type"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	Timeout           time.Duration `yaml:"timeout"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
	MaxLineBytes      int           `yaml:"max_line_bytes"`
}

type AISConfig struct {
	Stream StreamConfig  `yaml:"stream"`
	MQTT   AISMQTTConfig `yaml:"mqtt"`

	MaxTargets int `yaml:"max_targets"`
}

// StreamConfig is the NDJSON relay connection.
type StreamConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`

	BoundingBox ais.BoundingBox `yaml:"bounding_box"`

	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// AISMQTTConfig is the broker-based envelope source.
type AISMQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type EngineConfig struct {
	// FollowNav drives collision geometry from the instrument feed's own
	// position. Disable when the feed has no GPS and the own track is set
	// some other way.
	FollowNav *bool `yaml:"follow_nav"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type DisseminatorConfig struct {
	Enable      bool   `yaml:"enable"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	switch feed.Type(cfg.Feed.Type) {
	case feed.TypeTCP:
		if cfg.Feed.Host == "" {
			return Config{}, fmt.Errorf("feed.host is required for type=tcp")
		}
		if cfg.Feed.Port <= 0 || cfg.Feed.Port > 65535 {
			return Config{}, fmt.Errorf("feed.port is required for type=tcp")
		}
	case feed.TypeUDP:
		if cfg.Feed.Port <= 0 || cfg.Feed.Port > 65535 {
			return Config{}, fmt.Errorf("feed.port is required for type=udp")
		}
	case feed.TypeSerial:
		if cfg.Feed.Device == "" {
			return Config{}, fmt.Errorf("feed.device is required for type=serial")
		}
	case "":
		return Config{}, fmt.Errorf("feed.type is required (tcp, udp, or serial)")
	default:
		return Config{}, fmt.Errorf("unknown feed.type %q", cfg.Feed.Type)
	}

	if cfg.AIS.Stream.Enable {
		if cfg.AIS.Stream.Addr == "" {
			return Config{}, fmt.Errorf("ais.stream.addr is required when ais.stream.enable is true")
		}
		bb := cfg.AIS.Stream.BoundingBox
		if bb.MinLatDeg == 0 && bb.MaxLatDeg == 0 && bb.MinLonDeg == 0 && bb.MaxLonDeg == 0 {
			return Config{}, fmt.Errorf("ais.stream.bounding_box is required when ais.stream.enable is true")
		}
		if bb.MinLatDeg >= bb.MaxLatDeg || bb.MinLonDeg >= bb.MaxLonDeg {
			return Config{}, fmt.Errorf("ais.stream.bounding_box min must be below max")
		}
	}

	if cfg.AIS.MQTT.Enable {
		if cfg.AIS.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("ais.mqtt.broker is required when ais.mqtt.enable is true")
		}
		if cfg.AIS.MQTT.Topic == "" {
			return Config{}, fmt.Errorf("ais.mqtt.topic is required when ais.mqtt.enable is true")
		}
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.Disseminator.Enable && cfg.Disseminator.Broker == "" {
		return Config{}, fmt.Errorf("disseminator.broker is required when disseminator.enable is true")
	}

	return cfg, nil
}

// FollowNav defaults to true; EngineConfig uses a pointer so an explicit
// `follow_nav: false` survives unmarshalling.
func (c EngineConfig) FollowNavEnabled() bool {
	return c.FollowNav == nil || *c.FollowNav
}

// FeedClientConfig translates the YAML section into the feed client's config.
func (c FeedConfig) FeedClientConfig() feed.Config {
	return feed.Config{
		Type:              feed.Type(c.Type),
		Host:              c.Host,
		Port:              c.Port,
		Device:            c.Device,
		Baud:              c.Baud,
		Timeout:           c.Timeout,
		ReconnectDelay:    c.ReconnectDelay,
		MaxReconnectDelay: c.MaxReconnectDelay,
		MaxLineBytes:      c.MaxLineBytes,
	}
}
