package apdu

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// Command is the interpreter for exactly one decoded exchange. The Decoder
// constructs it, parses its fields, and the trace loop then calls Process
// once; afterwards the command is only read for formatting, never reused.
//
// Process is where the stateful protocol contract lives: an interpreter reads
// the parsed fields against the current RuntimeState, optionally mutates the
// selection cursors, and always leaves a descriptive Processed() string
// behind, success or failure. Failures to resolve a target must degrade into
// text, not into errors: malformed and out-of-order references are expected
// in captured traffic.
type Command interface {
	// Name is the human-readable command name from the registry.
	Name() string
	// Channel is the logical channel the command executed on.
	Channel() uint8
	// PathString describes the file-system location the command targeted.
	PathString() string
	// ColID is the compact class/instruction column for trace output.
	ColID() string
	// ColSW is the compact status-word column for trace output.
	ColSW() string
	// Processed is the free-form description filled in by Process.
	Processed() string

	// ParseFields splits P1/P2 and the data fields into the command's named
	// fields. Called by the Decoder immediately after construction.
	ParseFields() error
	// Process interprets the exchange against the runtime state.
	Process(rs *filesystem.RuntimeState)
}

// Base carries the parsed-field contract shared by all interpreters; concrete
// command types embed it and fill Path and Text during Process.
type Base struct {
	Ex      *RawExchange
	Chan    uint8
	CmdName string

	Path string
	Text string
}

// NewBase builds the shared portion of an interpreter.
func NewBase(name string, ex *RawExchange, channel uint8) Base {
	return Base{Ex: ex, Chan: channel, CmdName: name}
}

func (b *Base) Name() string       { return b.CmdName }
func (b *Base) Channel() uint8     { return b.Chan }
func (b *Base) PathString() string { return b.Path }
func (b *Base) Processed() string  { return b.Text }

// ColID renders the CLA/INS pair, e.g. "00A4".
func (b *Base) ColID() string {
	return fmt.Sprintf("%02X%02X", b.Ex.Cla, b.Ex.Ins)
}

// ColSW renders the status word, e.g. "9000".
func (b *Base) ColSW() string {
	return b.Ex.SW.Hex()
}

// Failf records a failed interpretation. The cursor must not have been moved
// by the caller in this case.
func (b *Base) Failf(format string, args ...interface{}) {
	b.Text = "FAILED: " + fmt.Sprintf(format, args...)
}

// Selection is implemented by interpreters of the SELECT family so the trace
// loop can suppress them without knowing the concrete types.
type Selection interface {
	IsSelection()
}

// SelectionMarker is embedded by selection-type interpreters.
type SelectionMarker struct{}

func (SelectionMarker) IsSelection() {}

// StatusQuery is implemented by interpreters of the STATUS family, the second
// suppressible command class.
type StatusQuery interface {
	IsStatusQuery()
}

// StatusMarker is embedded by status-type interpreters.
type StatusMarker struct{}

func (StatusMarker) IsStatusQuery() {}
