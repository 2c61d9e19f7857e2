package ais

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// BoundingBox is the geographic subscription window sent to the relay.
type BoundingBox struct {
	MinLatDeg float64 `yaml:"min_lat_deg"`
	MinLonDeg float64 `yaml:"min_lon_deg"`
	MaxLatDeg float64 `yaml:"max_lat_deg"`
	MaxLonDeg float64 `yaml:"max_lon_deg"`
}

type StreamConfig struct {
	Addr   string
	APIKey string

	BoundingBox BoundingBox

	ReconnectDelay time.Duration
	MaxLineBytes   int

	// DialTimeout is used for the initial TCP connect.
	DialTimeout time.Duration
}

// StreamClient reads newline-delimited JSON envelopes from the relay. On each
// (re)connect it sends the subscription frame with the bounding box before
// reading.
type StreamClient struct {
	cfg StreamConfig

	started atomic.Bool
	closed  atomic.Bool

	mu       sync.RWMutex
	state    string
	lastErr  string
	lastSeen time.Time
	count    uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type StreamSnapshot struct {
	Addr        string `json:"addr"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Messages    uint64 `json:"messages"`
}

// subscribeFrame mirrors the relay's subscription message: one bounding box
// as [[minLat,minLon],[maxLat,maxLon]].
type subscribeFrame struct {
	APIKey        string         `json:"APIKey,omitempty"`
	BoundingBoxes [][][2]float64 `json:"BoundingBoxes"`
}

func NewStreamClient(cfg StreamConfig) (*StreamClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("ais stream addr is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 256 * 1024
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	return &StreamClient{cfg: cfg, state: "stopped", done: make(chan struct{})}, nil
}

// Start connects and reads envelopes. For each JSON object, onEnvelope is
// called with a copy of the raw bytes; it should be fast or offload work.
func (c *StreamClient) Start(ctx context.Context, onEnvelope func(raw []byte) error) error {
	if c == nil {
		return fmt.Errorf("ais stream client is nil")
	}
	if c.closed.Load() {
		return fmt.Errorf("ais stream client is closed")
	}
	if onEnvelope == nil {
		return fmt.Errorf("ais onEnvelope is nil")
	}
	if c.started.Swap(true) {
		return fmt.Errorf("ais stream client already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setState("connecting", "")

	go func() {
		defer close(c.done)
		c.runLoop(runCtx, onEnvelope)
	}()
	return nil
}

func (c *StreamClient) Close() {
	if c == nil {
		return
	}
	if c.closed.Swap(true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

func (c *StreamClient) Snapshot() StreamSnapshot {
	if c == nil {
		return StreamSnapshot{}
	}
	c.mu.RLock()
	state := c.state
	lastErr := c.lastErr
	lastSeen := c.lastSeen
	count := c.count
	c.mu.RUnlock()

	out := StreamSnapshot{
		Addr:      c.cfg.Addr,
		State:     state,
		LastError: lastErr,
		Messages:  count,
	}
	if !lastSeen.IsZero() {
		out.LastSeenUTC = lastSeen.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (c *StreamClient) runLoop(ctx context.Context, onEnvelope func(raw []byte) error) {
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}

	for {
		select {
		case <-ctx.Done():
			c.setState("stopped", "")
			return
		default:
		}

		c.setState("connecting", "")
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err != nil {
			c.setState("error", err.Error())
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				c.setState("stopped", "")
				return
			}
			continue
		}

		if err := c.subscribe(conn); err != nil {
			_ = conn.Close()
			c.setState("error", "subscribe: "+err.Error())
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				c.setState("stopped", "")
				return
			}
			continue
		}

		c.setState("connected", "")
		reader := bufio.NewReader(conn)

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				c.setState("stopped", "")
				return
			default:
			}

			line, err := reader.ReadBytes('\n')
			if err != nil {
				_ = conn.Close()
				if errors.Is(err, net.ErrClosed) {
					c.setState("disconnected", "")
				} else {
					c.setState("disconnected", err.Error())
				}
				break
			}

			if len(line) > c.cfg.MaxLineBytes {
				c.setState("error", fmt.Sprintf("envelope too large (%d bytes)", len(line)))
				continue
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			raw := append([]byte(nil), line...)
			if err := onEnvelope(raw); err != nil {
				c.setState("error", "handler: "+err.Error())
				continue
			}

			now := time.Now().UTC()
			c.mu.Lock()
			c.lastSeen = now
			c.count++
			c.mu.Unlock()
		}

		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			c.setState("stopped", "")
			return
		}
	}
}

func (c *StreamClient) subscribe(conn net.Conn) error {
	bb := c.cfg.BoundingBox
	frame := subscribeFrame{
		APIKey: c.cfg.APIKey,
		BoundingBoxes: [][][2]float64{{
			{bb.MinLatDeg, bb.MinLonDeg},
			{bb.MaxLatDeg, bb.MaxLonDeg},
		}},
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.DialTimeout))
	_, err = conn.Write(append(b, '\n'))
	_ = conn.SetWriteDeadline(time.Time{})
	return err
}

func (c *StreamClient) setState(state string, lastErr string) {
	c.mu.Lock()
	c.state = state
	if lastErr != "" {
		c.lastErr = lastErr
	} else {
		// Clear stale errors on healthy/neutral states so status output
		// doesn't look broken after a transient startup failure.
		if state == "connected" || state == "connecting" || state == "stopped" {
			c.lastErr = ""
		}
	}
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
