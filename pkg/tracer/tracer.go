// Package tracer runs the decode loop: it pulls events from a source, feeds
// them through the decoder and the card model, and prints one formatted line
// per displayed command.
package tracer

import (
	"fmt"
	"io"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// Options controls which commands are displayed. The selection and status
// chatter between a modem and its card dwarfs everything else in a typical
// trace, so both are suppressed unless asked for. Suppressed commands are
// still processed: their state effects always apply.
type Options struct {
	ShowSelect bool
	ShowStatus bool
}

// Tracer drives one trace session over one card.
type Tracer struct {
	state   *filesystem.RuntimeState
	decoder *apdu.Decoder
	src     apdu.Source
	out     io.Writer
	opts    Options
}

// New assembles a tracer. All collaborators are required.
func New(state *filesystem.RuntimeState, decoder *apdu.Decoder, src apdu.Source, out io.Writer, opts Options) *Tracer {
	return &Tracer{
		state:   state,
		decoder: decoder,
		src:     src,
		out:     out,
		opts:    opts,
	}
}

const separator = "==============================="

// Run consumes the source until it is exhausted. Events are handled strictly
// in arrival order. A clean end of input returns nil; a source transport
// failure is returned as is.
func (t *Tracer) Run() error {
	for {
		ev, err := t.src.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("event source: %w", err)
		}

		switch e := ev.(type) {
		case apdu.CardReset:
			// Resets are not records; they only collapse the selection state.
			t.state.Reset()
		case *apdu.RawExchange:
			t.handleExchange(e)
		default:
			return fmt.Errorf("event source produced unknown event %T", ev)
		}
	}
}

func (t *Tracer) handleExchange(ex *apdu.RawExchange) {
	cmd := t.decoder.Decode(ex)
	cmd.Process(t.state)

	if t.suppressed(cmd) {
		return
	}

	fmt.Fprintf(t.out, "%02d %-16s %-35s %-8s %s %s\n",
		cmd.Channel(), cmd.Name(), cmd.PathString(), cmd.ColID(), cmd.ColSW(), cmd.Processed())
	fmt.Fprintln(t.out, separator)
}

func (t *Tracer) suppressed(cmd apdu.Command) bool {
	if _, ok := cmd.(apdu.Selection); ok && !t.opts.ShowSelect {
		return true
	}
	if _, ok := cmd.(apdu.StatusQuery); ok && !t.opts.ShowStatus {
		return true
	}
	return false
}
