package iso7816

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/sim-trace/pkg/tlv"
)

func TestParseFCP_TransparentEF(t *testing.T) {
	// FCP of a transparent EF: descriptor, FID, size, life cycle.
	raw := tlv.Hex("62 0F 82 02 41 21 83 02 6F 07 80 02 00 09 8A 01 05")

	fcp, err := ParseFCP(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if diff := cmp.Diff(tlv.Hex("6F 07"), fcp.FileIdentifier); diff != "" {
		t.Errorf("FileIdentifier mismatch (-want +got):\n%s", diff)
	}

	fid, ok := fcp.FID()
	if !ok || fid != 0x6F07 {
		t.Errorf("FID: got %04X (ok=%v), want 6F07", fid, ok)
	}
	if fcp.IsDF() {
		t.Error("Transparent EF reported as DF")
	}
	if got := fcp.StructureDesc(); got != "transparent" {
		t.Errorf("StructureDesc: got %q, want %q", got, "transparent")
	}

	summary := fcp.Summary()
	for _, want := range []string{"FID 6F07", "transparent", "9 bytes"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary %q missing %q", summary, want)
		}
	}
}

func TestParseFCP_ADF(t *testing.T) {
	raw := tlv.Hex("62 11 82 02 78 21 83 02 7F FF 84 07 A0 00 00 00 87 10 02")

	fcp, err := ParseFCP(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if !fcp.IsDF() {
		t.Error("ADF descriptor not recognized as DF")
	}
	if diff := cmp.Diff(tlv.Hex("A0 00 00 00 87 10 02"), fcp.AID()); diff != "" {
		t.Errorf("AID mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(fcp.Summary(), "AID A0000000871002") {
		t.Errorf("Summary %q missing AID", fcp.Summary())
	}
}

func TestParseFCP_FlatWithoutWrapper(t *testing.T) {
	// Some cards answer with the FCP fields at top level, no '62' template.
	raw := tlv.Hex("83 02 3F 00 82 02 78 21")

	fcp, err := ParseFCP(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if fid, ok := fcp.FID(); !ok || fid != 0x3F00 {
		t.Errorf("FID: got %04X (ok=%v), want 3F00", fid, ok)
	}
}

func TestParseFCP_UnknownTagsCollected(t *testing.T) {
	raw := tlv.Hex("62 08 83 02 6F 07 D5 02 AB CD")

	fcp, err := ParseFCP(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(fcp.Unknown) != 1 || !strings.EqualFold(fcp.Unknown[0].Tag, "D5") {
		t.Errorf("Unknown TLVs: got %+v, want single tag D5", fcp.Unknown)
	}
}

func TestParseFCP_Invalid(t *testing.T) {
	if _, err := ParseFCP(nil); err == nil {
		t.Error("Expected error for empty data, got nil")
	}
	if _, err := ParseFCP(tlv.Hex("62 05 83 02")); err == nil {
		t.Error("Expected error for truncated TLV, got nil")
	}
}
