package feed

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.bug.st/serial"
)

// lineSource abstracts the three transports behind a deadline-capable reader.
type lineSource interface {
	io.Reader
	io.Closer
	setReadDeadline(t time.Time) error
}

func (c *Client) open(ctx context.Context) (lineSource, error) {
	switch c.cfg.Type {
	case TypeTCP:
		dialer := &net.Dialer{Timeout: c.cfg.Timeout}
		conn, err := dialer.DialContext(ctx, "tcp", c.addr())
		if err != nil {
			return nil, err
		}
		return &connSource{conn: conn}, nil

	case TypeUDP:
		// No handshake: "connected" means the local socket is bound and
		// receiving. Host may be empty to listen on all interfaces.
		laddr := &net.UDPAddr{Port: c.cfg.Port}
		if c.cfg.Host != "" {
			laddr.IP = net.ParseIP(c.cfg.Host)
		}
		conn, err := net.ListenUDP("udp", laddr)
		if err != nil {
			return nil, err
		}
		return &connSource{conn: conn}, nil

	case TypeSerial:
		port, err := serial.Open(c.cfg.Device, &serial.Mode{BaudRate: c.cfg.Baud})
		if err != nil {
			return nil, err
		}
		if err := port.SetReadTimeout(c.cfg.Timeout); err != nil {
			_ = port.Close()
			return nil, err
		}
		return &serialSource{port: port}, nil

	default:
		return nil, fmt.Errorf("unknown feed type %q", c.cfg.Type)
	}
}

type connSource struct {
	conn net.Conn
}

func (s *connSource) Read(p []byte) (int, error) { return s.conn.Read(p) }

func (s *connSource) Close() error { return s.conn.Close() }

func (s *connSource) setReadDeadline(t time.Time) error { return s.conn.SetReadDeadline(t) }

type serialSource struct {
	port serial.Port
}

// Read maps the serial library's zero-byte timeout result onto the deadline
// error the rest of the loop already understands.
func (s *serialSource) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *serialSource) Close() error { return s.port.Close() }

// The per-read deadline is fixed at open time via SetReadTimeout.
func (s *serialSource) setReadDeadline(time.Time) error { return nil }
