package feed

import (
	"context"
	"net"
	"testing"
	"time"

	"seawatch/internal/nmea"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestStatusPredicates(t *testing.T) {
	if !StatusConnected.IsConnected() {
		t.Fatalf("connected must be IsConnected")
	}
	for _, s := range []Status{StatusDisconnected, StatusConnecting, StatusReconnecting, StatusError} {
		if s.IsConnected() {
			t.Fatalf("%s must not be IsConnected", s)
		}
	}
	for _, s := range []Status{StatusConnected, StatusConnecting, StatusReconnecting} {
		if !s.IsActive() {
			t.Fatalf("%s must be IsActive", s)
		}
	}
	if StatusDisconnected.IsActive() || StatusError.IsActive() {
		t.Fatalf("disconnected/error must not be IsActive")
	}
}

func TestNextDelay_MonotonicWithCap(t *testing.T) {
	d := 5 * time.Second
	prev := d
	for i := 0; i < 10; i++ {
		d = nextDelay(d, 80*time.Second)
		if d < prev {
			t.Fatalf("delay decreased: %s -> %s", prev, d)
		}
		prev = d
	}
	if d != 80*time.Second {
		t.Fatalf("expected cap 80s, got %s", d)
	}
}

func TestTCP_ReceivesLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("$SDDPT,12.3,0.5*62\r\n$YXMTW,17.5,C*11\r\n"))
		time.Sleep(200 * time.Millisecond)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c, err := New(Config{
		Type:           TypeTCP,
		Host:           "127.0.0.1",
		Port:           addr.Port,
		Timeout:        time.Second,
		ReconnectDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	lines := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(line string) { lines <- line }); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()

	select {
	case line := <-lines:
		if line != "$SDDPT,12.3,0.5*62" {
			t.Fatalf("unexpected first line %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no line received")
	}
	waitFor(t, time.Second, func() bool { return c.Snapshot().Lines >= 2 })
}

func TestConnect_NoOpWhenActive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				time.Sleep(time.Second)
				conn.Close()
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c, _ := New(Config{Type: TypeTCP, Host: "127.0.0.1", Port: addr.Port, Timeout: time.Second})
	ctx := context.Background()
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()
	waitFor(t, time.Second, func() bool { return c.Status().IsActive() })

	// Second connect while active must be a no-op, not an error.
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("second connect: %v", err)
	}
}

func TestNeverConnected_EndsInError(t *testing.T) {
	// Nothing listens here; after the grace retry the client must surface
	// error instead of retrying forever.
	c, _ := New(Config{
		Type:           TypeTCP,
		Host:           "127.0.0.1",
		Port:           1, // refused
		Timeout:        200 * time.Millisecond,
		ReconnectDelay: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()

	waitFor(t, 3*time.Second, func() bool { return c.Status() == StatusError })
	if le := c.LastError(); le == nil || le.Kind != nmea.KindConnectionError {
		t.Fatalf("expected connection_error, got %+v", le)
	}
}

func TestLostConnection_Reconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c, _ := New(Config{
		Type:           TypeTCP,
		Host:           "127.0.0.1",
		Port:           addr.Port,
		Timeout:        time.Second,
		ReconnectDelay: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()

	first := <-accepted
	waitFor(t, time.Second, func() bool { return c.Status() == StatusConnected })

	// Kill the peer side; the client must come back on its own.
	first.Close()
	select {
	case second := <-accepted:
		second.Close()
	case <-time.After(3 * time.Second):
		t.Fatalf("no reconnect attempt after connection loss")
	}
}

func TestDisconnect_CancelsPendingReconnect(t *testing.T) {
	c, _ := New(Config{
		Type:           TypeTCP,
		Host:           "127.0.0.1",
		Port:           1,
		Timeout:        100 * time.Millisecond,
		ReconnectDelay: 10 * time.Second, // long enough that the retry is pending
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return c.Status() == StatusReconnecting })
	c.Disconnect()
	if got := c.Status(); got != StatusDisconnected {
		t.Fatalf("status after disconnect = %s", got)
	}

	// No further attempt may resurrect the state machine.
	time.Sleep(100 * time.Millisecond)
	if got := c.Status(); got != StatusDisconnected {
		t.Fatalf("stale timer resurrected connection: %s", got)
	}
	// Disconnect is idempotent from any state.
	c.Disconnect()
}

func TestUDP_ReceivesDatagrams(t *testing.T) {
	// Grab a free UDP port first; the client binds it itself.
	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	port := probe.LocalAddr().(*net.UDPAddr).Port
	probe.Close()

	c, err := New(Config{
		Type:           TypeUDP,
		Host:           "127.0.0.1",
		Port:           port,
		Timeout:        2 * time.Second,
		ReconnectDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	lines := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(line string) { lines <- line }); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()
	waitFor(t, time.Second, func() bool { return c.Status() == StatusConnected })

	out, err := net.Dial("udp", c.addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer out.Close()
	for i := 0; i < 5; i++ {
		_, _ = out.Write([]byte("$SDDPT,12.3,0.5*62\r\n"))
		select {
		case line := <-lines:
			if line != "$SDDPT,12.3,0.5*62" {
				t.Fatalf("unexpected line %q", line)
			}
			return
		case <-time.After(200 * time.Millisecond):
		}
	}
	t.Fatalf("no datagram line received")
}

func TestBufferOverflow_ResetsConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// 200 bytes without a newline against a 64-byte buffer.
		junk := make([]byte, 200)
		for i := range junk {
			junk[i] = 'A'
		}
		_, _ = conn.Write(junk)
		time.Sleep(500 * time.Millisecond)
		conn.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c, _ := New(Config{
		Type:           TypeTCP,
		Host:           "127.0.0.1",
		Port:           addr.Port,
		Timeout:        time.Second,
		ReconnectDelay: 10 * time.Second,
		MaxLineBytes:   64,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx, func(string) {}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Disconnect()

	waitFor(t, 3*time.Second, func() bool {
		le := c.LastError()
		return le != nil && le.Kind == nmea.KindBufferOverflow
	})
	if got := c.Status(); got != StatusReconnecting {
		t.Fatalf("overflow must reset the connection, status = %s", got)
	}
}
