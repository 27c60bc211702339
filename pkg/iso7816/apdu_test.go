package iso7816

import (
	"encoding/hex"
	"testing"

	"github.com/gregLibert/sim-trace/pkg/tlv"
)

func TestParseCommandAPDU(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		wantData []byte
		wantNe   int
	}{
		{
			name: "Case 1: Header Only",
			raw:  tlv.Hex("00 A4 01 02"),
		},
		{
			name:   "Case 2 Short: Le",
			raw:    tlv.Hex("00 B0 00 00 05"),
			wantNe: 5,
		},
		{
			name:   "Case 2 Short: Le=00 means 256",
			raw:    tlv.Hex("00 B0 00 00 00"),
			wantNe: MaxShortLe,
		},
		{
			name:     "Case 3 Short: Lc and Data",
			raw:      tlv.Hex("00 A4 04 00 02 3F 00"),
			wantData: tlv.Hex("3F 00"),
		},
		{
			name:     "Case 4 Short: Data and Le",
			raw:      tlv.Hex("00 A4 04 00 02 3F 00 0A"),
			wantData: tlv.Hex("3F 00"),
			wantNe:   10,
		},
		{
			name:   "Case 2 Extended: 2-byte Le",
			raw:    tlv.Hex("00 B0 00 00 00 01 F4"),
			wantNe: 500,
		},
		{
			name:     "Case 3 Extended: 2-byte Lc",
			raw:      append(tlv.Hex("00 D6 00 00 00 01 04"), make([]byte, 260)...),
			wantData: make([]byte, 260),
		},
		{
			name:     "Case 4 Extended: Lc, Data and Le",
			raw:      tlv.Hex("00 A4 04 00 00 00 02 3F 00 00 64"),
			wantData: tlv.Hex("3F 00"),
			wantNe:   100,
		},
		{
			name:   "Case 2 Extended: Le=0000 means 65536",
			raw:    tlv.Hex("00 B0 00 00 00 00 00"),
			wantNe: MaxExtendedLe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommandAPDU(tt.raw)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}

			if hex.EncodeToString(cmd.Data) != hex.EncodeToString(tt.wantData) {
				t.Errorf("Data mismatch: got %X, want %X", cmd.Data, tt.wantData)
			}
			if cmd.Ne != tt.wantNe {
				t.Errorf("Ne mismatch: got %d, want %d", cmd.Ne, tt.wantNe)
			}
		})
	}
}

func TestParseCommandAPDU_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"Truncated header", tlv.Hex("00 A4 04")},
		{"Truncated data", tlv.Hex("00 A4 04 00 05 3F 00")},
		{"Stray bytes after body", tlv.Hex("00 A4 04 00 01 3F 0A 0B")},
		{"Truncated extended length", tlv.Hex("00 B0 00 00 00 01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCommandAPDU(tt.raw); err == nil {
				t.Errorf("Expected error for %X, got nil", tt.raw)
			}
		})
	}
}

func TestParseCommandAPDU_UnknownClass(t *testing.T) {
	// Reserved CLA 0xFF must not fail the parse; classification is the
	// decoder's job.
	cmd, err := ParseCommandAPDU(tlv.Hex("FF A4 00 00"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !cmd.Class.IsProprietary {
		t.Error("Reserved class should be carried as proprietary")
	}
}

func TestParseCommandAPDU_Instruction(t *testing.T) {
	cmd, err := ParseCommandAPDU(tlv.Hex("00 B1 00 00"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !cmd.Instruction.IsBERTLV {
		t.Error("INS B1 should flag BER-TLV data formatting")
	}

	// Reserved 6X/9X codes must not fail the parse; the raw value is kept.
	cmd, err = ParseCommandAPDU(tlv.Hex("00 60 00 00"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if byte(cmd.Instruction.Raw) != 0x60 {
		t.Errorf("Reserved INS: got %02X, want 60", byte(cmd.Instruction.Raw))
	}
}

func TestParseResponseAPDU(t *testing.T) {
	// Raw: 01 02 03 (Data) | 90 00 (SW)
	raw := tlv.Hex("01 02 03 90 00")
	resp, err := ParseResponseAPDU(raw)

	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Errorf("Wrong data length: got %d, want 3", len(resp.Data))
	}
	if resp.Status != SW_NO_ERROR {
		t.Errorf("Wrong status: got %04X, want %04X", uint16(resp.Status), uint16(SW_NO_ERROR))
	}
}

func TestParseResponseAPDU_TooShort(t *testing.T) {
	// Only 1 byte, should fail
	raw := []byte{0x90}
	_, err := ParseResponseAPDU(raw)

	if err == nil {
		t.Error("Expected error for short response, got nil")
	}
}
