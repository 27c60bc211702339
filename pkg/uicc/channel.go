package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// ManageChannel interprets INS 70 (TS 102 221). P1 selects open (00) or
// close (80); P2 names the affected channel, with 0 on open meaning "card
// assigns one", returned as the single response byte.
//
// Closing a channel discards its selection cursor: any later traffic on that
// number belongs to a fresh channel starting at the MF.
type ManageChannel struct {
	apdu.Base

	closing bool
	target  uint8
}

func newManageChannel(b apdu.Base) apdu.Command {
	return &ManageChannel{Base: b}
}

func (c *ManageChannel) ParseFields() error {
	switch c.Ex.P1 {
	case 0x00:
		c.closing = false
	case 0x80:
		c.closing = true
	default:
		return fmt.Errorf("invalid MANAGE CHANNEL operation P1=%02X", c.Ex.P1)
	}

	if c.Ex.P2 > 19 {
		return fmt.Errorf("channel %d out of range", c.Ex.P2)
	}
	c.target = c.Ex.P2
	return nil
}

func (c *ManageChannel) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)

	if c.closing {
		if !c.Ex.Successful() {
			c.Failf("close channel %d: %s", c.target, c.Ex.SW.Verbose())
			return
		}
		rs.ResetChannel(c.target)
		c.Text = fmt.Sprintf("closed channel %d", c.target)
		return
	}

	assigned := c.target
	if assigned == 0 && len(c.Ex.RspData) == 1 {
		assigned = c.Ex.RspData[0]
	}

	if !c.Ex.Successful() {
		c.Failf("open channel %d: %s", c.target, c.Ex.SW.Verbose())
		return
	}

	// A freshly opened channel starts with its cursor at the MF.
	rs.ResetChannel(assigned)
	c.Text = fmt.Sprintf("opened channel %d", assigned)
}
