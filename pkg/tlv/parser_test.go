package tlv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type sampleTemplate struct {
	Identifier []byte `tlv:"83"`
	Label      string `tlv:"84"`

	Unknown []bertlv.TLV
}

func TestUnmarshal(t *testing.T) {
	data := Hex("83 02 6F 07", "84 03 41 42 43", "D5 01 FF")

	var target sampleTemplate
	if err := Unmarshal(data, &target); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if diff := cmp.Diff(Hex("6F 07"), target.Identifier); diff != "" {
		t.Errorf("Identifier mismatch (-want +got):\n%s", diff)
	}
	// String fields receive the hex encoding of the value.
	if target.Label != "414243" {
		t.Errorf("Label: got %q, want %q", target.Label, "414243")
	}
	if len(target.Unknown) != 1 {
		t.Fatalf("Unknown: got %d leftover TLVs, want 1", len(target.Unknown))
	}
}

func TestUnmarshal_InvalidTarget(t *testing.T) {
	var target sampleTemplate
	if err := Unmarshal(Hex("83 01 00"), target); err == nil {
		t.Error("Expected error for non-pointer target, got nil")
	}
}

func TestUnmarshal_ConstructedField(t *testing.T) {
	// A constructed TLV mapped to a []byte field keeps the nested encoding.
	type wrapper struct {
		Proprietary []byte `tlv:"A5"`
	}

	data := Hex("A5 04 83 02 6F 07")
	var target wrapper
	if err := Unmarshal(data, &target); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if diff := cmp.Diff(Hex("83 02 6F 07"), target.Proprietary); diff != "" {
		t.Errorf("Nested encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestGetValue(t *testing.T) {
	data := Hex("62 04 83 02 3F 00")

	value, err := GetValue(data, 0x62)
	if err != nil {
		t.Fatalf("GetValue error: %v", err)
	}
	if diff := cmp.Diff(Hex("83 02 3F 00"), value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}

	if _, err := GetValue(data, 0x99); err == nil {
		t.Error("Expected error for missing tag, got nil")
	}
}

func TestMakeSafeASCII(t *testing.T) {
	got := MakeSafeASCII([]byte{'A', 0x00, 'B', 0x7F})
	if got != "A.B." {
		t.Errorf("MakeSafeASCII: got %q, want %q", got, "A.B.")
	}
}
