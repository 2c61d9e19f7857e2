package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"seawatch/internal/nmea"
)

// Type selects the transport for the instrument stream.
type Type string

const (
	TypeTCP    Type = "tcp"
	TypeUDP    Type = "udp"
	TypeSerial Type = "serial"
)

// Status is the connection state machine. disconnected is the initial state
// and the only state reachable via an explicit Disconnect.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusError        Status = "error"
)

func (s Status) IsConnected() bool { return s == StatusConnected }

func (s Status) IsActive() bool {
	return s == StatusConnected || s == StatusConnecting || s == StatusReconnecting
}

// Config is immutable for the client's lifetime.
type Config struct {
	Type Type
	Host string
	Port int

	// Device/Baud apply to Type == serial.
	Device string
	Baud   int

	// Timeout bounds dials and individual reads. For UDP, a read that sees no
	// traffic for Timeout triggers the reconnect path, since UDP delivery is
	// not guaranteed.
	Timeout time.Duration

	// ReconnectDelay is the initial backoff; it doubles per failed attempt up
	// to MaxReconnectDelay and resets on a successful connection.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	// MaxLineBytes bounds the read buffer. A line that cannot terminate
	// within it is a buffer_overflow error and resets the connection.
	MaxLineBytes int
}

// Client owns one socket (or serial port) and feeds complete lines to the
// handler passed to Connect. All state transitions happen on the single run
// goroutine; Disconnect never blocks, so it is safe to call from a handler.
type Client struct {
	cfg Config

	mu         sync.RWMutex
	gen        int
	status     Status
	lastErr    *nmea.Error
	lastSeen   time.Time
	lines      uint64
	reconnects int
	cancel     context.CancelFunc
}

// Snapshot is the read-only view of the client for status output.
type Snapshot struct {
	Type              Type        `json:"type"`
	Addr              string      `json:"addr"`
	Status            Status      `json:"status"`
	LastError         *nmea.Error `json:"last_error,omitempty"`
	LastSeenUTC       string      `json:"last_seen_utc,omitempty"`
	Lines             uint64      `json:"lines"`
	ReconnectAttempts int         `json:"reconnect_attempts"`
}

func New(cfg Config) (*Client, error) {
	switch cfg.Type {
	case TypeTCP, TypeUDP:
		if cfg.Host == "" && cfg.Type == TypeTCP {
			return nil, fmt.Errorf("feed host is required for tcp")
		}
		if cfg.Port <= 0 || cfg.Port > 65535 {
			return nil, fmt.Errorf("feed port %d is out of range", cfg.Port)
		}
	case TypeSerial:
		if cfg.Device == "" {
			return nil, fmt.Errorf("feed device is required for serial")
		}
		if cfg.Baud <= 0 {
			cfg.Baud = 4800
		}
	default:
		return nil, fmt.Errorf("unknown feed type %q", cfg.Type)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = 80 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 4096
	}

	return &Client{cfg: cfg, status: StatusDisconnected}, nil
}

// Connect starts the read loop. It is a no-op when the client is already
// active. onLine receives each complete, whitespace-trimmed line.
func (c *Client) Connect(ctx context.Context, onLine func(line string)) error {
	if c == nil {
		return fmt.Errorf("feed client is nil")
	}
	if onLine == nil {
		return fmt.Errorf("feed onLine is nil")
	}

	c.mu.Lock()
	if c.status.IsActive() {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.status = StatusConnecting
	c.mu.Unlock()

	go c.runLoop(runCtx, gen, onLine)
	return nil
}

// Disconnect cancels any pending reconnect timer, closes the socket, and
// transitions to disconnected. Callable from any state, idempotent, and
// non-blocking so the read loop's own callbacks may invoke it.
func (c *Client) Disconnect() {
	if c == nil {
		return
	}
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.gen++ // invalidate the running session so it cannot clobber state
	c.status = StatusDisconnected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Client) Status() Status {
	if c == nil {
		return StatusDisconnected
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) LastError() *nmea.Error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Client) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := Snapshot{
		Type:              c.cfg.Type,
		Addr:              c.addr(),
		Status:            c.status,
		LastError:         c.lastErr,
		Lines:             c.lines,
		ReconnectAttempts: c.reconnects,
	}
	if !c.lastSeen.IsZero() {
		out.LastSeenUTC = c.lastSeen.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (c *Client) addr() string {
	if c.cfg.Type == TypeSerial {
		return c.cfg.Device
	}
	return net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
}

// setState applies a transition only if the session is still current, so a
// loop that lost a Disconnect race cannot resurrect the connection state.
func (c *Client) setState(gen int, status Status, err *nmea.Error, attempts int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.status = status
	if err != nil {
		c.lastErr = err
	}
	c.reconnects = attempts
	return true
}

func (c *Client) markLine() {
	c.mu.Lock()
	c.lastSeen = time.Now().UTC()
	c.lines++
	c.mu.Unlock()
}

func (c *Client) runLoop(ctx context.Context, gen int, onLine func(line string)) {
	delay := c.cfg.ReconnectDelay
	attempts := 0
	everConnected := false

	for {
		if ctx.Err() != nil {
			return
		}

		c.setState(gen, StatusConnecting, nil, attempts)
		src, err := c.open(ctx)
		if err != nil {
			attempts++
			connErr := classify(err, c.addr())
			// An initial misconfiguration (wrong host/port) is unlikely to
			// self-resolve by retrying: after the first attempt's grace retry,
			// a client that has never connected surfaces error instead.
			if !everConnected && attempts > 1 {
				c.setState(gen, StatusError, connErr, attempts)
				return
			}
			if !c.setState(gen, StatusReconnecting, connErr, attempts) {
				return
			}
			if !sleepCtx(ctx, delay) {
				return
			}
			delay = nextDelay(delay, c.cfg.MaxReconnectDelay)
			continue
		}

		everConnected = true
		attempts = 0
		delay = c.cfg.ReconnectDelay
		if !c.setState(gen, StatusConnected, nil, 0) {
			_ = src.Close()
			return
		}

		readErr := c.readLines(ctx, src, onLine)
		_ = src.Close()
		if ctx.Err() != nil {
			return
		}

		attempts++
		if !c.setState(gen, StatusReconnecting, readErr, attempts) {
			return
		}
		if !sleepCtx(ctx, delay) {
			return
		}
		delay = nextDelay(delay, c.cfg.MaxReconnectDelay)
	}
}

// readLines reads until the source fails, returning the connection-level
// error that ended the session. Per-line parse failures are the caller's
// concern; this layer only frames lines.
func (c *Client) readLines(ctx context.Context, src lineSource, onLine func(line string)) *nmea.Error {
	reader := bufio.NewReaderSize(src, c.cfg.MaxLineBytes)

	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = src.setReadDeadline(time.Now().Add(c.cfg.Timeout))

		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// A receive buffer that cannot terminate a line means the peer's
			// framing assumptions are broken; flush and reset the connection.
			return &nmea.Error{
				Kind:      nmea.KindBufferOverflow,
				Message:   fmt.Sprintf("no line terminator within %d bytes", c.cfg.MaxLineBytes),
				Timestamp: time.Now().UTC(),
			}
		}
		if err != nil {
			return classify(err, c.addr())
		}

		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}
		onLine(text)
		c.markLine()
	}
}

func classify(err error, addr string) *nmea.Error {
	kind := nmea.KindConnectionError
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = nmea.KindTimeout
	} else if errors.Is(err, os.ErrDeadlineExceeded) {
		kind = nmea.KindTimeout
	}
	return &nmea.Error{
		Kind:      kind,
		Message:   addr + ": " + err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		d = max
	}
	return d
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
