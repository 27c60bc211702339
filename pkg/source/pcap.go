package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/gregLibert/sim-trace/pkg/apdu"
)

// PcapSource replays GSMTAP traffic from a pcap capture file. Packets are
// filtered down to UDP on the configured port (0 matches any port), then
// parsed like live datagrams. End of file is a clean io.EOF.
type PcapSource struct {
	f    *os.File
	pkts *gopacket.PacketSource
	port uint16
}

// NewPcapSource opens a capture file for replay.
func NewPcapSource(path string, port uint16) (*PcapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}

	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading pcap header of %s: %w", path, err)
	}

	return &PcapSource{
		f:    f,
		pkts: gopacket.NewPacketSource(r, r.LinkType()),
		port: port,
	}, nil
}

// ReadEvent returns the next SIM event from the capture.
func (s *PcapSource) ReadEvent() (apdu.Event, error) {
	for {
		pkt, err := s.pkts.NextPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading capture: %w", err)
		}

		layer := pkt.Layer(layers.LayerTypeUDP)
		if layer == nil {
			continue
		}
		udp := layer.(*layers.UDP)
		if s.port != 0 && uint16(udp.DstPort) != s.port {
			continue
		}

		ev, err := EventFromDatagram(udp.Payload)
		if err != nil {
			log.Printf("skipping packet %d: %v", FrameNumber(udp.Payload), err)
			continue
		}
		if ev == nil {
			continue
		}
		return ev, nil
	}
}

// Close releases the underlying capture file.
func (s *PcapSource) Close() error {
	return s.f.Close()
}
