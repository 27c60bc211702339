package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// Status interprets the STATUS command (INS F2). The terminal polls it
// periodically as a keepalive and to learn the currently selected DF, so a
// trace is full of them; it reads the cursor state without mutating it.
//
// TS 102 221 P1: 00 = no indication, 01 = current application initialized,
// 02 = terminal will terminate the application.
// P2: 00 = respond like SELECT (FCP), 01 = DF name TLV, 0C = no data.
type Status struct {
	apdu.Base
	apdu.StatusMarker

	indication byte
	response   byte
}

func newStatus(b apdu.Base) apdu.Command {
	return &Status{Base: b}
}

func (c *Status) ParseFields() error {
	c.indication = c.Ex.P1
	c.response = c.Ex.P2

	if c.indication > 0x02 {
		return fmt.Errorf("invalid STATUS indication P1=%02X", c.indication)
	}
	switch c.response {
	case 0x00, 0x01, 0x0C:
		return nil
	default:
		return fmt.Errorf("invalid STATUS response mode P2=%02X", c.response)
	}
}

func (c *Status) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan
	c.Path = rs.PathString(ch)

	cur := rs.CurrentNode(ch)
	c.Text = fmt.Sprintf("current %s %s", cur.Type, cur.Name)

	if app := rs.CurrentApp(ch); app != nil {
		c.Text += fmt.Sprintf(", application %s", app.Name)
	}

	switch c.indication {
	case 0x01:
		c.Text += " [app initialized]"
	case 0x02:
		c.Text += " [app terminating]"
	}

	if c.response == 0x00 && len(c.Ex.RspData) > 0 && c.Ex.Cla != claSIM {
		if fcp, err := iso7816.ParseFCP(c.Ex.RspData); err == nil {
			c.Text += " (" + fcp.Summary() + ")"
		}
	}
}
