package uicc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/bits"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
)

// Binary command addressing (ISO 7816-4 / TS 102 221):
// If bit 8 of P1 is set, bits 5-1 of P1 hold an SFI and P2 is the offset
// (SFI-referenced access makes that EF current). Otherwise P1|P2 form a
// 15-bit offset into the currently selected transparent EF.
type binaryFields struct {
	sfi    byte
	offset int
}

func parseBinaryFields(p1, p2 byte) binaryFields {
	if bits.IsSet(p1, 8) {
		return binaryFields{sfi: bits.GetRange(p1, 5, 1), offset: int(p2)}
	}
	return binaryFields{offset: int(p1)<<8 | int(p2)}
}

// resolveBinaryTarget applies SFI addressing (if any) and returns the EF the
// command operates on, or nil when the model cannot resolve it.
func (f binaryFields) resolveTarget(rs *filesystem.RuntimeState, ch uint8) (*filesystem.Node, error) {
	if f.sfi != 0 {
		return rs.SelectBySFI(ch, f.sfi)
	}
	cur := rs.CurrentNode(ch)
	if cur.IsDirectory() {
		return nil, fmt.Errorf("no current EF (cursor at %s)", cur.Path())
	}
	return cur, nil
}

// hexPreview renders up to max bytes of data as hex, eliding the rest.
func hexPreview(data []byte, max int) string {
	if len(data) <= max {
		return strings.ToUpper(hex.EncodeToString(data))
	}
	return strings.ToUpper(hex.EncodeToString(data[:max])) + fmt.Sprintf("..(%d bytes)", len(data))
}

// ReadBinary interprets INS B0 against the current transparent EF.
type ReadBinary struct {
	apdu.Base
	fields binaryFields
}

func newReadBinary(b apdu.Base) apdu.Command {
	return &ReadBinary{Base: b}
}

func (c *ReadBinary) ParseFields() error {
	c.fields = parseBinaryFields(c.Ex.P1, c.Ex.P2)
	return nil
}

func (c *ReadBinary) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan

	ef, err := c.fields.resolveTarget(rs, ch)
	c.Path = rs.PathString(ch)
	if err != nil {
		c.Failf("read binary at offset %d: %v", c.fields.offset, err)
		return
	}

	c.Text = fmt.Sprintf("read %d bytes at offset %d from %s",
		len(c.Ex.RspData), c.fields.offset, ef.Name)
	if len(c.Ex.RspData) > 0 {
		c.Text += ": " + hexPreview(c.Ex.RspData, 16)
	}
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}

// UpdateBinary interprets INS D6 against the current transparent EF.
type UpdateBinary struct {
	apdu.Base
	fields binaryFields
}

func newUpdateBinary(b apdu.Base) apdu.Command {
	return &UpdateBinary{Base: b}
}

func (c *UpdateBinary) ParseFields() error {
	if len(c.Ex.Data) == 0 {
		return fmt.Errorf("update binary without data")
	}
	c.fields = parseBinaryFields(c.Ex.P1, c.Ex.P2)
	return nil
}

func (c *UpdateBinary) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan

	ef, err := c.fields.resolveTarget(rs, ch)
	c.Path = rs.PathString(ch)
	if err != nil {
		c.Failf("update binary at offset %d: %v", c.fields.offset, err)
		return
	}

	c.Text = fmt.Sprintf("wrote %d bytes at offset %d to %s: %s",
		len(c.Ex.Data), c.fields.offset, ef.Name, hexPreview(c.Ex.Data, 16))
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}
