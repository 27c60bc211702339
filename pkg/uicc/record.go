package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// recordFields is the shared P1/P2 decode of the record-oriented commands.
type recordFields struct {
	p1   byte
	sfi  byte
	mode iso7816.RecordMode
}

func parseRecordFields(p1, p2 byte) recordFields {
	sfi, mode := iso7816.DecodeRecordP2(p2)
	return recordFields{p1: p1, sfi: sfi, mode: mode}
}

// recordDesc names the addressed record for display.
func (f recordFields) recordDesc() string {
	if f.mode.RefersByNumber() {
		if f.p1 == 0 {
			return "current record"
		}
		return fmt.Sprintf("record %d", f.p1)
	}
	return fmt.Sprintf("record id %02X (%s)", f.p1, f.mode)
}

func (f recordFields) resolveTarget(rs *filesystem.RuntimeState, ch uint8) (*filesystem.Node, error) {
	if f.sfi != 0 {
		return rs.SelectBySFI(ch, f.sfi)
	}
	cur := rs.CurrentNode(ch)
	if cur.IsDirectory() {
		return nil, fmt.Errorf("no current EF (cursor at %s)", cur.Path())
	}
	return cur, nil
}

// ReadRecord interprets INS B2 against the current record-oriented EF.
type ReadRecord struct {
	apdu.Base
	fields recordFields
}

func newReadRecord(b apdu.Base) apdu.Command {
	return &ReadRecord{Base: b}
}

func (c *ReadRecord) ParseFields() error {
	c.fields = parseRecordFields(c.Ex.P1, c.Ex.P2)
	return nil
}

func (c *ReadRecord) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan

	ef, err := c.fields.resolveTarget(rs, ch)
	c.Path = rs.PathString(ch)
	if err != nil {
		c.Failf("read %s: %v", c.fields.recordDesc(), err)
		return
	}

	c.Text = fmt.Sprintf("read %s of %s (%d bytes)",
		c.fields.recordDesc(), ef.Name, len(c.Ex.RspData))
	if len(c.Ex.RspData) > 0 {
		c.Text += ": " + hexPreview(c.Ex.RspData, 16)
	}
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}

// UpdateRecord interprets INS DC against the current record-oriented EF.
type UpdateRecord struct {
	apdu.Base
	fields recordFields
}

func newUpdateRecord(b apdu.Base) apdu.Command {
	return &UpdateRecord{Base: b}
}

func (c *UpdateRecord) ParseFields() error {
	if len(c.Ex.Data) == 0 {
		return fmt.Errorf("update record without data")
	}
	c.fields = parseRecordFields(c.Ex.P1, c.Ex.P2)
	return nil
}

func (c *UpdateRecord) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan

	ef, err := c.fields.resolveTarget(rs, ch)
	c.Path = rs.PathString(ch)
	if err != nil {
		c.Failf("update %s: %v", c.fields.recordDesc(), err)
		return
	}

	c.Text = fmt.Sprintf("wrote %s of %s (%d bytes): %s",
		c.fields.recordDesc(), ef.Name, len(c.Ex.Data), hexPreview(c.Ex.Data, 16))
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}

// SearchRecord interprets INS A2 (SEEK on classic SIMs). It scans the current
// EF for a pattern; no selection state changes.
type SearchRecord struct {
	apdu.Base
	pattern []byte
}

func newSearchRecord(b apdu.Base) apdu.Command {
	return &SearchRecord{Base: b}
}

func (c *SearchRecord) ParseFields() error {
	c.pattern = c.Ex.Data
	return nil
}

func (c *SearchRecord) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("search pattern %s in %s",
		hexPreview(c.pattern, 8), rs.CurrentNode(c.Chan).Name)
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}

// Increase interprets INS 32, which adds a value to the current cyclic EF's
// newest record (used for accumulating call meters).
type Increase struct {
	apdu.Base
}

func newIncrease(b apdu.Base) apdu.Command {
	return &Increase{Base: b}
}

func (c *Increase) ParseFields() error {
	if len(c.Ex.Data) == 0 {
		return fmt.Errorf("increase without value")
	}
	return nil
}

func (c *Increase) Process(rs *filesystem.RuntimeState) {
	c.Path = rs.PathString(c.Chan)
	c.Text = fmt.Sprintf("increase %s by %s",
		rs.CurrentNode(c.Chan).Name, hexPreview(c.Ex.Data, 8))
	if !c.Ex.Successful() {
		c.Text += " [" + c.Ex.SW.Verbose() + "]"
	}
}
