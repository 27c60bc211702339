/*
Package source provides the capture mechanisms that feed the trace loop:
a live UDP listener for GSMTAP-encapsulated SIM traffic (as emitted by
simtrace2 and osmo-qcdiag) and a replay reader for pcap files containing the
same datagrams.

Both implement the apdu.Source pull contract and differ only in where the
bytes come from; everything above the datagram level is shared GSMTAP
parsing.
*/
package source

import (
	"encoding/binary"
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// GSMTAP constants (see gsmtap.h of libosmocore).
const (
	// DefaultPort is the IANA-registered GSMTAP UDP port.
	DefaultPort = 4729

	gsmtapVersion2  = 0x02
	gsmtapMinHdrLen = 16 // 4 words of 32 bits

	// TypeSIM identifies SIM card traffic among the GSMTAP payload types.
	TypeSIM = 0x04
)

// GSMTAP SIM sub-types.
const (
	SubTypeAPDU    = 0x00 // complete APDU exchange (command + response)
	SubTypeATR     = 0x01 // Answer To Reset: the card was power cycled
	SubTypePPSReq  = 0x02
	SubTypePPSRsp  = 0x03
	SubTypeTPDUHdr = 0x04
	SubTypeTPDUCmd = 0x05
	SubTypeTPDURsp = 0x06
	SubTypeTPDUSW  = 0x07
)

// Packet is a parsed GSMTAP datagram.
type Packet struct {
	Version byte
	Type    byte
	SubType byte
	Payload []byte
}

// ParsePacket decodes the fixed GSMTAP header. The header length field is in
// 32-bit words, so extension headers are skipped transparently.
func ParsePacket(buf []byte) (*Packet, error) {
	if len(buf) < gsmtapMinHdrLen {
		return nil, fmt.Errorf("datagram of %d bytes, GSMTAP header needs %d", len(buf), gsmtapMinHdrLen)
	}

	version := buf[0]
	if version != gsmtapVersion2 {
		return nil, fmt.Errorf("unsupported GSMTAP version %d", version)
	}

	hdrLen := int(buf[1]) * 4
	if hdrLen < gsmtapMinHdrLen || hdrLen > len(buf) {
		return nil, fmt.Errorf("bad GSMTAP header length %d", hdrLen)
	}

	return &Packet{
		Version: version,
		Type:    buf[2],
		SubType: buf[12],
		Payload: buf[hdrLen:],
	}, nil
}

// FrameNumber extracts the capture frame counter from a raw datagram, for
// diagnostics only.
func FrameNumber(buf []byte) uint32 {
	if len(buf) < gsmtapMinHdrLen {
		return 0
	}
	return binary.BigEndian.Uint32(buf[8:12])
}

// EventFromDatagram maps one GSMTAP datagram to a trace event. It returns
// (nil, nil) for traffic the tracer ignores: non-SIM GSMTAP types and the
// PPS/TPDU-fragment sub-types, which duplicate what the APDU sub-type
// already carries.
func EventFromDatagram(buf []byte) (apdu.Event, error) {
	pkt, err := ParsePacket(buf)
	if err != nil {
		return nil, err
	}
	if pkt.Type != TypeSIM {
		return nil, nil
	}

	switch pkt.SubType {
	case SubTypeATR:
		return apdu.CardReset{}, nil
	case SubTypeAPDU:
		return ExchangeFromTPDU(pkt.Payload)
	default:
		return nil, nil
	}
}

// ExchangeFromTPDU reassembles a RawExchange from a T=0 TPDU as captured by
// simtrace: CLA INS P1 P2 P3, then either the command data (Lc = P3) or the
// response data, then SW1 SW2.
//
// T=0 has no case 4, so the bytes between header and status word belong to
// exactly one direction. Attribution is by length: a middle section of
// exactly P3 bytes is command data, anything else is response data (where P3
// was Le, with 0 meaning 256).
func ExchangeFromTPDU(payload []byte) (*apdu.RawExchange, error) {
	if len(payload) <= iso7816.HeaderLength {
		// Header-only capture: command went unanswered (reset mid-exchange).
		return nil, fmt.Errorf("TPDU of %d bytes carries no status word", len(payload))
	}

	p3 := int(payload[iso7816.HeaderLength])

	// Everything after the header and P3 is an R-APDU: optional data followed
	// by SW1 SW2.
	rsp, err := iso7816.ParseResponseAPDU(payload[iso7816.HeaderLength+1:])
	if err != nil {
		return nil, fmt.Errorf("TPDU without status word: %w", err)
	}

	ex := &apdu.RawExchange{
		Cla: payload[0],
		Ins: payload[1],
		P1:  payload[2],
		P2:  payload[3],
		SW:  rsp.Status,
	}

	switch middle := rsp.Data; {
	case len(middle) == 0:
		// Case 1/2 without response data.
	case len(middle) == p3:
		// Command direction: header, P3 and data form a short case 3 C-APDU.
		cmd, err := iso7816.ParseCommandAPDU(payload[:iso7816.HeaderLength+1+p3])
		if err != nil {
			return nil, fmt.Errorf("TPDU command body: %w", err)
		}
		ex.Data = cmd.Data
	default:
		ex.RspData = middle
	}

	return ex, nil
}
