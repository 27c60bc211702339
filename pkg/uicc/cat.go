package uicc

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// Card Application Toolkit commands (ETSI TS 102 223). The card uses them to
// drive the terminal: it flags pending proactive commands via SW 91XX, the
// terminal FETCHes them, executes, and answers with TERMINAL RESPONSE.
// None of them touch the file-system cursor; the trace reports the toolkit
// dialogue so the operator sees what the card asked the phone to do.

// proactiveCommandNames maps TS 102 223 type-of-command values for display.
var proactiveCommandNames = map[byte]string{
	0x01: "REFRESH",
	0x03: "POLL INTERVAL",
	0x05: "SET UP EVENT LIST",
	0x10: "SET UP CALL",
	0x11: "SEND SS",
	0x12: "SEND USSD",
	0x13: "SEND SHORT MESSAGE",
	0x14: "SEND DTMF",
	0x15: "LAUNCH BROWSER",
	0x20: "PLAY TONE",
	0x21: "DISPLAY TEXT",
	0x22: "GET INKEY",
	0x23: "GET INPUT",
	0x24: "SELECT ITEM",
	0x25: "SET UP MENU",
	0x26: "PROVIDE LOCAL INFORMATION",
	0x27: "TIMER MANAGEMENT",
	0x28: "SET UP IDLE MODE TEXT",
	0x40: "OPEN CHANNEL",
	0x41: "CLOSE CHANNEL",
	0x42: "RECEIVE DATA",
	0x43: "SEND DATA",
	0x44: "GET CHANNEL STATUS",
}

// describeProactive extracts the type of a proactive command TLV (tag D0).
func describeProactive(data []byte) string {
	packets, err := bertlv.Decode(data)
	if err != nil || len(packets) == 0 {
		return fmt.Sprintf("%d bytes", len(data))
	}

	p := packets[0]
	if !strings.EqualFold(p.Tag, "D0") {
		return fmt.Sprintf("tag %s, %d bytes", p.Tag, len(data))
	}

	// Inside: command details TLV (tag 81/01), byte 2 is type of command.
	for _, inner := range p.TLVs {
		if (inner.Tag == "81" || inner.Tag == "01") && len(inner.Value) >= 2 {
			if name, ok := proactiveCommandNames[inner.Value[1]]; ok {
				return name
			}
			return fmt.Sprintf("proactive type %02X", inner.Value[1])
		}
	}
	return fmt.Sprintf("proactive command, %d bytes", len(data))
}

// TerminalProfile interprets INS 10 (and TERMINAL CAPABILITY, INS AA): the
// terminal announces which toolkit features it supports.
type TerminalProfile struct {
	apdu.Base
}

func newTerminalProfile(b apdu.Base) apdu.Command {
	return &TerminalProfile{Base: b}
}

func (c *TerminalProfile) ParseFields() error {
	return nil
}

func (c *TerminalProfile) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("%s (%d bytes): %s", c.CmdName, len(c.Ex.Data), hexPreview(c.Ex.Data, 8))
	if c.Ex.SW.IsProactivePending() {
		c.Text += fmt.Sprintf(", %d proactive bytes pending", c.Ex.SW.SW2())
	}
}

// Fetch interprets INS 12: the terminal retrieves a pending proactive command.
type Fetch struct {
	apdu.Base
}

func newFetch(b apdu.Base) apdu.Command {
	return &Fetch{Base: b}
}

func (c *Fetch) ParseFields() error {
	return nil
}

func (c *Fetch) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	if len(c.Ex.RspData) == 0 {
		c.Failf("fetch returned no proactive command: %s", c.Ex.SW.Verbose())
		return
	}
	c.Text = "fetched " + describeProactive(c.Ex.RspData)
}

// TerminalResponse interprets INS 14: the terminal reports the outcome of the
// proactive command it executed.
type TerminalResponse struct {
	apdu.Base
}

func newTerminalResponse(b apdu.Base) apdu.Command {
	return &TerminalResponse{Base: b}
}

func (c *TerminalResponse) ParseFields() error {
	return nil
}

func (c *TerminalResponse) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("terminal response (%d bytes)", len(c.Ex.Data))
	if c.Ex.SW.IsProactivePending() {
		c.Text += fmt.Sprintf(", %d more proactive bytes pending", c.Ex.SW.SW2())
	}
}

// Envelope interprets INS C2: the terminal forwards an event (SMS delivery,
// menu selection, timers) into the card.
type Envelope struct {
	apdu.Base
	tag string
}

func newEnvelope(b apdu.Base) apdu.Command {
	return &Envelope{Base: b}
}

func (c *Envelope) ParseFields() error {
	if len(c.Ex.Data) == 0 {
		return fmt.Errorf("envelope without data")
	}
	if packets, err := bertlv.Decode(c.Ex.Data); err == nil && len(packets) > 0 {
		c.tag = packets[0].Tag
	}
	return nil
}

func (c *Envelope) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	if c.tag != "" {
		c.Text = fmt.Sprintf("envelope tag %s (%d bytes)", c.tag, len(c.Ex.Data))
	} else {
		c.Text = fmt.Sprintf("envelope (%d bytes, not TLV)", len(c.Ex.Data))
	}
	if c.Ex.SW.IsProactivePending() {
		c.Text += fmt.Sprintf(", %d proactive bytes pending", c.Ex.SW.SW2())
	}
}
