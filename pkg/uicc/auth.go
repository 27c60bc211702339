package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// Verify interprets INS 20 (VERIFY PIN / VERIFY CHV). An empty data field is
// a retry-counter query; otherwise the terminal presented a PIN value, which
// the trace reports only by length, never by content.
type Verify struct {
	apdu.Base
	reference byte
	presented bool
}

func newVerify(b apdu.Base) apdu.Command {
	return &Verify{Base: b}
}

func (c *Verify) ParseFields() error {
	c.reference = c.Ex.P2
	c.presented = len(c.Ex.Data) > 0
	if c.presented && len(c.Ex.Data) != 8 {
		return fmt.Errorf("PIN block must be 8 bytes, got %d", len(c.Ex.Data))
	}
	return nil
}

func (c *Verify) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)

	action := "query retry counter of"
	if c.presented {
		action = "verify"
	}
	c.Text = fmt.Sprintf("%s PIN (reference %02X): %s", action, c.reference, c.Ex.SW.Verbose())
}

// PinManagement covers the remaining PIN lifecycle commands (CHANGE,
// DISABLE, ENABLE, UNBLOCK). They share a parameter layout with VERIFY and
// differ only in their effect on the card, which the trace reports by name.
type PinManagement struct {
	apdu.Base
	reference byte
}

func newPinManagement(b apdu.Base) apdu.Command {
	return &PinManagement{Base: b}
}

func (c *PinManagement) ParseFields() error {
	c.reference = c.Ex.P2
	return nil
}

func (c *PinManagement) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("%s (reference %02X, %d data bytes): %s",
		c.CmdName, c.reference, len(c.Ex.Data), c.Ex.SW.Verbose())
}

// FileLifecycle covers DEACTIVATE FILE / ACTIVATE FILE (INVALIDATE /
// REHABILITATE on classic SIMs), which toggle the availability of the
// current EF without moving the cursor.
type FileLifecycle struct {
	apdu.Base
}

func newFileLifecycle(b apdu.Base) apdu.Command {
	return &FileLifecycle{Base: b}
}

func (c *FileLifecycle) ParseFields() error {
	return nil
}

func (c *FileLifecycle) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("%s on %s: %s", c.CmdName, rs.CurrentNode(c.Chan).Name, c.Ex.SW.Verbose())
}

// RunGSMAlgorithm interprets the classic SIM authentication (INS 88 under
// CLA A0): a 16-byte RAND in, SRES and Kc out.
type RunGSMAlgorithm struct {
	apdu.Base
	rand []byte
}

func newRunGSMAlgorithm(b apdu.Base) apdu.Command {
	return &RunGSMAlgorithm{Base: b}
}

func (c *RunGSMAlgorithm) ParseFields() error {
	if len(c.Ex.Data) != 16 {
		return fmt.Errorf("RAND must be 16 bytes, got %d", len(c.Ex.Data))
	}
	c.rand = c.Ex.Data
	return nil
}

func (c *RunGSMAlgorithm) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("GSM auth, RAND %s", hexPreview(c.rand, 16))
	if c.Ex.Successful() && len(c.Ex.RspData) > 0 {
		c.Text += fmt.Sprintf(" -> SRES/Kc (%d bytes)", len(c.Ex.RspData))
	}
}

// Authenticate is the generic TS 102 221 interpretation of INS 88: it
// reports the exchange without decoding the authentication context. The USIM
// command set overrides it with the context-aware variant below.
type Authenticate struct {
	apdu.Base
}

func newAuthenticate(b apdu.Base) apdu.Command {
	return &Authenticate{Base: b}
}

func (c *Authenticate) ParseFields() error {
	return nil
}

func (c *Authenticate) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("authenticate (%d data bytes): %s", len(c.Ex.Data), c.Ex.SW.Verbose())
}

// UsimAuthenticate decodes the TS 31.102 AUTHENTICATE contexts. P2 selects
// the reference data: 0x80 is the UMTS context (RAND + AUTN), 0x81 the GSM
// context (RAND only, for 2G interworking).
type UsimAuthenticate struct {
	apdu.Base

	context string
	rand    []byte
	autn    []byte
}

func newUsimAuthenticate(b apdu.Base) apdu.Command {
	return &UsimAuthenticate{Base: b}
}

func (c *UsimAuthenticate) ParseFields() error {
	data := c.Ex.Data

	readLV := func() ([]byte, error) {
		if len(data) == 0 {
			return nil, fmt.Errorf("truncated authenticate data")
		}
		n := int(data[0])
		if len(data) < 1+n {
			return nil, fmt.Errorf("LV element of %d bytes in %d remaining", n, len(data)-1)
		}
		v := data[1 : 1+n]
		data = data[1+n:]
		return v, nil
	}

	var err error
	switch c.Ex.P2 & 0x87 {
	case 0x81:
		c.context = "GSM"
		if c.rand, err = readLV(); err != nil {
			return err
		}
	case 0x80:
		c.context = "UMTS"
		if c.rand, err = readLV(); err != nil {
			return err
		}
		if c.autn, err = readLV(); err != nil {
			return err
		}
	case 0x82:
		c.context = "VGCS/VBS"
	case 0x84:
		c.context = "GBA"
	default:
		return fmt.Errorf("unknown authentication context P2=%02X", c.Ex.P2)
	}
	return nil
}

func (c *UsimAuthenticate) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)

	c.Text = fmt.Sprintf("%s context", c.context)
	if len(c.rand) > 0 {
		c.Text += fmt.Sprintf(", RAND %s", hexPreview(c.rand, 16))
	}
	if len(c.autn) > 0 {
		c.Text += fmt.Sprintf(", AUTN %s", hexPreview(c.autn, 16))
	}

	// TS 31.102: first response byte DB = success tag, DC = sync failure.
	if len(c.Ex.RspData) > 0 {
		switch c.Ex.RspData[0] {
		case 0xDB:
			c.Text += " -> success (RES/CK/IK)"
		case 0xDC:
			c.Text += " -> synchronisation failure (AUTS)"
		default:
			c.Text += fmt.Sprintf(" -> %d response bytes", len(c.Ex.RspData))
		}
	}
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}
