package apdu

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/filesystem"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// Decoder classifies raw exchanges against a command registry and
// instantiates the matching interpreter. It holds no mutable state of its
// own; the registry it is built with is immutable.
type Decoder struct {
	registry *Registry
}

// NewDecoder creates a decoder over an assembled registry.
func NewDecoder(registry *Registry) *Decoder {
	return &Decoder{registry: registry}
}

// Decode looks up the exchange's (CLA, INS) pair and returns the matching
// interpreter with its fields parsed. It never fails:
//
//   - an unregistered key yields the unknown-command fallback;
//   - a field-parse error yields the matched interpreter wrapped so that its
//     Processed() text reports the malformation instead of the normal result.
func (d *Decoder) Decode(ex *RawExchange) Command {
	channel := iso7816.ChannelOf(ex.Cla)

	desc, ok := d.registry.Lookup(ex.Cla, ex.Ins)
	if !ok {
		return &unknownCommand{Base: NewBase("UNKNOWN", ex, channel)}
	}

	cmd := desc.New(NewBase(desc.Name, ex, channel))
	if err := cmd.ParseFields(); err != nil {
		return &degradedCommand{Command: cmd, err: err}
	}
	return cmd
}

// unknownCommand is the catch-all interpreter for traffic no registered
// command set covers. It performs no state mutation.
type unknownCommand struct {
	Base
}

func (u *unknownCommand) ParseFields() error {
	return nil
}

func (u *unknownCommand) Process(rs *filesystem.RuntimeState) {
	u.Path = rs.PathString(u.Chan)
	u.Text = fmt.Sprintf("unrecognized command (CLA %02X INS %02X, P1 %02X P2 %02X, %d data bytes)",
		u.Ex.Cla, u.Ex.Ins, u.Ex.P1, u.Ex.P2, len(u.Ex.Data))
}

// degradedCommand wraps an interpreter whose field parsing failed. Its
// Process does not run the wrapped logic (the fields are unusable) and never
// mutates state; the record still gets printed, marked as malformed.
type degradedCommand struct {
	Command
	err  error
	path string
}

func (d *degradedCommand) ParseFields() error {
	return d.err
}

func (d *degradedCommand) Process(rs *filesystem.RuntimeState) {
	d.path = rs.PathString(d.Channel())
}

func (d *degradedCommand) PathString() string {
	return d.path
}

func (d *degradedCommand) Processed() string {
	return fmt.Sprintf("MALFORMED %s: %v", d.Command.Name(), d.err)
}
