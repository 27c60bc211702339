package iso7816

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/sim-trace/pkg/bits"
	"github.com/gregLibert/sim-trace/pkg/tlv"
)

// FILE CONTROL PARAMETERS (FCP) according to ISO/IEC 7816-4 and ETSI TS 102 221.
//
// When a SELECT succeeds, the card returns a BER-TLV template describing the
// selected file. On telecom cards (TS 102 221) this is the FCP template,
// tag '62'; legacy GSM SIMs (TS 51.011) return a fixed binary header instead,
// which is out of TLV scope and handled by the caller.
//
// A passive trace uses the FCP only for display: it tells the operator what
// kind of file the terminal just selected (size, structure, identifier, AID)
// without consulting the card-model tree.

// FCPTemplate (File Control Parameters) - Tag '62'.
type FCPTemplate struct {
	FileSize            []byte `tlv:"80" fmt:"int"`
	TotalFileSize       []byte `tlv:"81" fmt:"int"`
	FileDescriptor      []byte `tlv:"82"`
	FileIdentifier      []byte `tlv:"83"`
	DFName              []byte `tlv:"84" fmt:"ascii"`
	ProprietaryInfo     []byte `tlv:"A5"`
	ShortEFIdentifier   []byte `tlv:"88"`
	LifeCycleStatus     []byte `tlv:"8A"`
	SecurityAttrRef     []byte `tlv:"8B"`
	SecurityAttrCompact []byte `tlv:"8C"`
	SecurityAttrExp     []byte `tlv:"AB"`
	PINStatusTemplate   []byte `tlv:"C6"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseFCP parses the data field of a successful SELECT (or STATUS) response.
// A '62' wrapper is unwrapped if present; otherwise the TLVs are taken as a
// flat FCP, which some cards emit.
func ParseFCP(data []byte) (*FCPTemplate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty FCP data")
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	working := packets
	for _, p := range packets {
		if strings.EqualFold(p.Tag, "62") {
			working = p.TLVs
			break
		}
	}

	fcp := &FCPTemplate{}
	if err := tlv.UnmarshalFromPackets(working, fcp); err != nil {
		return nil, fmt.Errorf("FCP unmarshal failed: %w", err)
	}
	return fcp, nil
}

// FID returns the 16-bit file identifier (tag 83), if present.
func (f *FCPTemplate) FID() (uint16, bool) {
	if len(f.FileIdentifier) != 2 {
		return 0, false
	}
	return uint16(f.FileIdentifier[0])<<8 | uint16(f.FileIdentifier[1]), true
}

// AID returns the DF name (tag 84), which for an ADF is the application AID.
func (f *FCPTemplate) AID() []byte {
	return f.DFName
}

// IsDF reports whether the file descriptor marks the file as a DF or ADF.
// TS 102 221: bits 6-4 of the file descriptor byte all set means DF/ADF.
func (f *FCPTemplate) IsDF() bool {
	if len(f.FileDescriptor) == 0 {
		return false
	}
	return bits.GetRange(f.FileDescriptor[0], 6, 4) == 0b111
}

// StructureDesc names the EF structure encoded in the file descriptor byte.
func (f *FCPTemplate) StructureDesc() string {
	if len(f.FileDescriptor) == 0 {
		return "unknown"
	}
	fd := f.FileDescriptor[0]
	if fd&0x38 == 0x38 {
		return "DF/ADF"
	}
	switch fd & 0x07 {
	case 0x01:
		return "transparent"
	case 0x02:
		return "linear fixed"
	case 0x06:
		return "cyclic"
	default:
		return fmt.Sprintf("structure 0x%02X", fd)
	}
}

// Summary renders a one-line description suitable for trace output.
func (f *FCPTemplate) Summary() string {
	var parts []string

	if fid, ok := f.FID(); ok {
		parts = append(parts, fmt.Sprintf("FID %04X", fid))
	}
	if len(f.DFName) > 0 {
		parts = append(parts, fmt.Sprintf("AID %X", f.DFName))
	}
	if len(f.FileDescriptor) > 0 {
		parts = append(parts, f.StructureDesc())
	}
	if len(f.FileSize) > 0 {
		var size int
		for _, b := range f.FileSize {
			size = size<<8 | int(b)
		}
		parts = append(parts, fmt.Sprintf("%d bytes", size))
	}

	if len(parts) == 0 {
		return "FCP without known fields"
	}
	return strings.Join(parts, ", ")
}
