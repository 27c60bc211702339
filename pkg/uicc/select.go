package uicc

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// Select interprets the SELECT command (INS A4) of both the SIM and UICC
// sets. It is the only command that moves the selection cursor by explicit
// addressing, so most of the RuntimeState contract is exercised here.
//
// Addressing modes (P1):
//   - by file ID (2-byte FID, empty data selects the MF);
//   - child DF / EF under current DF (also a 2-byte FID);
//   - parent of the current DF;
//   - by DF name, i.e. an application AID (possibly truncated);
//   - by path of FIDs, from the MF or from the current DF.
//
// The cursor only moves when the card itself reported success: a selection
// the card refused did not change the real card state either, and following
// it would desynchronize the reconstructed cursor.
type Select struct {
	apdu.Base
	apdu.SelectionMarker

	method     iso7816.SelectionMethod
	occurrence iso7816.FileOccurrence
	control    iso7816.SelectionControl

	fid  uint16   // single-FID modes
	aid  []byte   // by-DF-name mode
	path []uint16 // path modes
}

func newSelect(b apdu.Base) apdu.Command {
	return &Select{Base: b}
}

func (c *Select) ParseFields() error {
	c.method = iso7816.SelectionMethod(c.Ex.P1)
	c.occurrence, c.control = iso7816.DecodeSelectP2(c.Ex.P2)

	data := c.Ex.Data
	switch c.method {
	case iso7816.SelectByFileID, iso7816.SelectChildDF, iso7816.SelectEFUnderCurrentDF:
		switch len(data) {
		case 0:
			// TS 102 221: SELECT by FID with empty data selects the MF.
			c.fid = 0x3F00
		case 2:
			c.fid = uint16(data[0])<<8 | uint16(data[1])
		default:
			return fmt.Errorf("select by FID wants 0 or 2 data bytes, got %d", len(data))
		}

	case iso7816.SelectParentDF:
		if len(data) != 0 {
			return fmt.Errorf("select parent carries no data, got %d bytes", len(data))
		}

	case iso7816.SelectByDFName:
		if len(data) == 0 {
			return fmt.Errorf("select by DF name without an AID")
		}
		c.aid = data

	case iso7816.SelectPathFromMF, iso7816.SelectPathFromCurrentDF:
		if len(data) == 0 || len(data)%2 != 0 {
			return fmt.Errorf("select by path wants an even number of data bytes, got %d", len(data))
		}
		for i := 0; i < len(data); i += 2 {
			c.path = append(c.path, uint16(data[i])<<8|uint16(data[i+1]))
		}

	default:
		return fmt.Errorf("unknown selection method P1=%02X", c.Ex.P1)
	}
	return nil
}

func (c *Select) Process(rs *filesystem.RuntimeState) {
	ch := c.Chan

	if !c.Ex.Successful() {
		// The card refused; its cursor did not move, neither does ours.
		c.Path = rs.PathString(ch)
		c.Failf("card refused %s of %s: %s", c.method, c.targetDesc(), c.Ex.SW.Verbose())
		return
	}

	var node *filesystem.Node
	var err error

	switch c.method {
	case iso7816.SelectByFileID, iso7816.SelectChildDF, iso7816.SelectEFUnderCurrentDF:
		node, err = rs.SelectFileID(ch, c.fid)
	case iso7816.SelectParentDF:
		node, err = rs.SelectParent(ch)
	case iso7816.SelectByDFName:
		node, err = rs.SelectAID(ch, c.aid)
	case iso7816.SelectPathFromMF:
		node, err = rs.SelectPath(ch, c.path, true)
	case iso7816.SelectPathFromCurrentDF:
		node, err = rs.SelectPath(ch, c.path, false)
	}

	if err != nil {
		// The target is missing from the card model. The cursor stays put and
		// the mismatch is surfaced in the record, not raised.
		c.Path = rs.PathString(ch)
		c.Failf("cannot resolve %s: %v", c.targetDesc(), err)
		return
	}

	c.Path = node.Path()
	c.Text = fmt.Sprintf("selected %s", node.Name)

	if fcpText := c.describeResponseFCP(); fcpText != "" {
		c.Text += " (" + fcpText + ")"
	}
}

// targetDesc names the selection target for failure messages.
func (c *Select) targetDesc() string {
	switch c.method {
	case iso7816.SelectByDFName:
		return fmt.Sprintf("AID %X", c.aid)
	case iso7816.SelectParentDF:
		return "parent DF"
	case iso7816.SelectPathFromMF, iso7816.SelectPathFromCurrentDF:
		return fmt.Sprintf("path %04X", c.path)
	default:
		return fmt.Sprintf("FID %04X", c.fid)
	}
}

// describeResponseFCP summarizes the FCP template the card returned, if any.
// Classic SIMs (CLA A0) answer with a fixed binary header instead of TLV, so
// those responses are skipped.
func (c *Select) describeResponseFCP() string {
	if c.Ex.Cla == claSIM || len(c.Ex.RspData) == 0 {
		return ""
	}
	if c.control != iso7816.ReturnFCP && c.control != iso7816.ReturnFCI {
		return ""
	}
	fcp, err := iso7816.ParseFCP(c.Ex.RspData)
	if err != nil {
		return fmt.Sprintf("unparseable FCP: %v", err)
	}
	return fcp.Summary()
}
