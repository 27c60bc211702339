package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// GetResponse interprets INS C0, the T=0 mechanism for retrieving response
// data the card announced with SW 61XX. It is transport plumbing: no state
// changes, the payload belongs to the preceding logical command.
type GetResponse struct {
	apdu.Base
}

func newGetResponse(b apdu.Base) apdu.Command {
	return &GetResponse{Base: b}
}

func (c *GetResponse) ParseFields() error {
	return nil
}

func (c *GetResponse) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("retrieved %d pending response bytes", len(c.Ex.RspData))
	if len(c.Ex.RspData) > 0 {
		c.Text += ": " + hexPreview(c.Ex.RspData, 16)
	}
}

// GetChallenge interprets INS 84: the terminal asks the card for random bytes.
type GetChallenge struct {
	apdu.Base
}

func newGetChallenge(b apdu.Base) apdu.Command {
	return &GetChallenge{Base: b}
}

func (c *GetChallenge) ParseFields() error {
	return nil
}

func (c *GetChallenge) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("challenge of %d bytes", len(c.Ex.RspData))
}

// Sleep interprets the legacy INS FA of TS 51.011, obsolete but still seen
// from old terminals.
type Sleep struct {
	apdu.Base
}

func newSleep(b apdu.Base) apdu.Command {
	return &Sleep{Base: b}
}

func (c *Sleep) ParseFields() error {
	return nil
}

func (c *Sleep) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = "sleep (obsolete)"
}

// Suspend interprets INS 76 (SUSPEND UICC, TS 102 221): the terminal parks
// the card to save power while keeping its state resumable.
type Suspend struct {
	apdu.Base
}

func newSuspend(b apdu.Base) apdu.Command {
	return &Suspend{Base: b}
}

func (c *Suspend) ParseFields() error {
	return nil
}

func (c *Suspend) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	switch c.Ex.P1 {
	case 0x00:
		c.Text = "suspend UICC: " + c.Ex.SW.Verbose()
	case 0x01:
		c.Text = "resume UICC: " + c.Ex.SW.Verbose()
	default:
		c.Text = fmt.Sprintf("suspend UICC (P1=%02X): %s", c.Ex.P1, c.Ex.SW.Verbose())
	}
}
