/*
Package apdu contains the core of the trace decoder: the event model produced
by capture sources, the command registry keyed by (CLA, INS), and the decoder
that turns a raw exchange into a command interpreter.

The decoding pipeline is:

	Source -> RawExchange | CardReset -> Decoder (registry lookup + field
	parse) -> Command.Process(RuntimeState) -> one formatted trace record

Decoding is never fatal: traffic on the wire is a superset of what any
command set can describe (vendor and proprietary commands included), so an
unrecognized (CLA, INS) pair yields a fallback interpreter that reports the
command as unhandled instead of aborting the loop.
*/
package apdu

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// Event is a single observation delivered by a capture source: either a
// command/response exchange or a card reset.
type Event interface {
	isEvent()
}

// RawExchange is one captured command APDU with its paired response.
// Attributes are immutable once captured.
type RawExchange struct {
	Cla  byte
	Ins  byte
	P1   byte
	P2   byte
	Data []byte // command data field (may be nil)

	RspData []byte // response data field (may be nil)
	SW      iso7816.StatusWord
}

func (*RawExchange) isEvent() {}

// Successful reports whether the card answered with a success status.
func (e *RawExchange) Successful() bool {
	return e.SW.IsSuccess()
}

// Channel returns the logical channel encoded in the CLA byte.
func (e *RawExchange) Channel() uint8 {
	return iso7816.ChannelOf(e.Cla)
}

func (e *RawExchange) String() string {
	return fmt.Sprintf("CLA=%02X INS=%02X P1=%02X P2=%02X Lc=%d Le-data=%d SW=%s",
		e.Cla, e.Ins, e.P1, e.P2, len(e.Data), len(e.RspData), e.SW.Hex())
}

// CardReset signals that the card was powered off and on (ATR seen on the
// wire). It carries no payload; a reset invalidates the selection state of
// every logical channel.
type CardReset struct{}

func (CardReset) isEvent() {}

// Source is the pull contract every capture mechanism implements. ReadEvent
// blocks until the next event is available and returns io.EOF on a clean end
// of stream. Any other error is a transport failure and terminates the trace.
type Source interface {
	ReadEvent() (Event, error)
}
