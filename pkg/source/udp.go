package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/gregLibert/sim-trace/pkg/apdu"
)

// UDPSource listens for live GSMTAP datagrams, one event per datagram.
// Malformed or irrelevant datagrams are logged and skipped; only transport
// failures surface to the caller.
type UDPSource struct {
	conn *net.UDPConn
	buf  [4096]byte
}

// NewUDPSource binds a UDP listener on the given address.
func NewUDPSource(bindIP string, port int) (*UDPSource, error) {
	ip := net.ParseIP(bindIP)
	if ip == nil {
		return nil, fmt.Errorf("invalid bind address %q", bindIP)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: ip, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listening on %s:%d: %w", bindIP, port, err)
	}
	return &UDPSource{conn: conn}, nil
}

// ReadEvent blocks until the next SIM event arrives. Closing the source makes
// it return io.EOF.
func (s *UDPSource) ReadEvent() (apdu.Event, error) {
	for {
		n, from, err := s.conn.ReadFromUDP(s.buf[:])
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading datagram: %w", err)
		}

		// The receive array is reused on the next read; the event and its
		// payload slices must not alias it.
		datagram := make([]byte, n)
		copy(datagram, s.buf[:n])

		ev, err := EventFromDatagram(datagram)
		if err != nil {
			log.Printf("skipping datagram from %s: %v", from, err)
			continue
		}
		if ev == nil {
			continue
		}
		return ev, nil
	}
}

// Close shuts the listener down, unblocking any pending ReadEvent.
func (s *UDPSource) Close() error {
	return s.conn.Close()
}
