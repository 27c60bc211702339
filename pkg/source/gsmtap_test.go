package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
	"github.com/gregLibert/sim-trace/pkg/tlv"
)

// datagram builds a minimal GSMTAP v2 datagram around a payload.
func datagram(gsmtapType, subType byte, payload []byte) []byte {
	hdr := make([]byte, gsmtapMinHdrLen)
	hdr[0] = gsmtapVersion2
	hdr[1] = gsmtapMinHdrLen / 4
	hdr[2] = gsmtapType
	hdr[12] = subType
	return append(hdr, payload...)
}

func TestParsePacket(t *testing.T) {
	pkt, err := ParsePacket(datagram(TypeSIM, SubTypeAPDU, tlv.Hex("A0 A4 00 00")))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if pkt.Type != TypeSIM || pkt.SubType != SubTypeAPDU {
		t.Errorf("Type/SubType: got %02X/%02X", pkt.Type, pkt.SubType)
	}
	if diff := cmp.Diff(tlv.Hex("A0 A4 00 00"), pkt.Payload); diff != "" {
		t.Errorf("Payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePacket_ExtensionHeaders(t *testing.T) {
	// hdr_len counts 32-bit words: 5 words skip one extension word.
	buf := datagram(TypeSIM, SubTypeAPDU, append(tlv.Hex("DE AD BE EF"), tlv.Hex("A0 A4 00 00")...))
	buf[1] = 5

	pkt, err := ParsePacket(buf)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if diff := cmp.Diff(tlv.Hex("A0 A4 00 00"), pkt.Payload); diff != "" {
		t.Errorf("Payload mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePacket_Invalid(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"Truncated header", make([]byte, 8)},
		{"Wrong version", append([]byte{0x01, 0x04}, make([]byte, 14)...)},
		{"Header length beyond datagram", append([]byte{0x02, 0x40}, make([]byte, 14)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePacket(tt.buf); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestEventFromDatagram(t *testing.T) {
	t.Run("ATR becomes a card reset", func(t *testing.T) {
		ev, err := EventFromDatagram(datagram(TypeSIM, SubTypeATR, tlv.Hex("3B 9F 96")))
		if err != nil {
			t.Fatalf("Error: %v", err)
		}
		if _, ok := ev.(apdu.CardReset); !ok {
			t.Errorf("Expected CardReset, got %T", ev)
		}
	})

	t.Run("APDU becomes an exchange", func(t *testing.T) {
		ev, err := EventFromDatagram(datagram(TypeSIM, SubTypeAPDU, tlv.Hex("A0 A4 00 00 02 3F 00 90 00")))
		if err != nil {
			t.Fatalf("Error: %v", err)
		}
		if _, ok := ev.(*apdu.RawExchange); !ok {
			t.Errorf("Expected *RawExchange, got %T", ev)
		}
	})

	t.Run("Non-SIM traffic is skipped", func(t *testing.T) {
		ev, err := EventFromDatagram(datagram(0x02, 0x00, nil))
		if err != nil || ev != nil {
			t.Errorf("Expected (nil, nil), got (%v, %v)", ev, err)
		}
	})

	t.Run("PPS fragments are skipped", func(t *testing.T) {
		ev, err := EventFromDatagram(datagram(TypeSIM, SubTypePPSReq, tlv.Hex("FF 10 94")))
		if err != nil || ev != nil {
			t.Errorf("Expected (nil, nil), got (%v, %v)", ev, err)
		}
	})
}

func TestExchangeFromTPDU(t *testing.T) {
	tests := []struct {
		name        string
		payload     []byte
		wantData    []byte
		wantRspData []byte
		wantSW      iso7816.StatusWord
	}{
		{
			name:    "Case 1: header, P3 and SW only",
			payload: tlv.Hex("A0 C0 00 00 0F 90 00"),
			wantSW:  0x9000,
		},
		{
			name:     "Command data: middle length equals P3",
			payload:  tlv.Hex("A0 A4 00 00 02 3F 00 90 00"),
			wantData: tlv.Hex("3F 00"),
			wantSW:   0x9000,
		},
		{
			name:        "Response data: middle length differs from P3",
			payload:     append(tlv.Hex("00 B0 00 00 00"), append(make([]byte, 9), 0x90, 0x00)...),
			wantRspData: make([]byte, 9),
			wantSW:      0x9000,
		},
		{
			name:    "Refused command",
			payload: tlv.Hex("00 A4 00 04 02 5F 55 6A 82"),
			// Attribution by length still applies on failure.
			wantData: tlv.Hex("5F 55"),
			wantSW:   0x6A82,
		},
		{
			name: "AID select body",
			payload: append(append(tlv.Hex("00 A4 04 04 10"),
				tlv.Hex("A0 00 00 00 87 10 02 FF FF FF FF 89 07 09 00 00")...), 0x61, 0x19),
			wantData: tlv.Hex("A0 00 00 00 87 10 02 FF FF FF FF 89 07 09 00 00"),
			wantSW:   0x6119,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := ExchangeFromTPDU(tt.payload)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if diff := cmp.Diff(tt.wantData, ex.Data); diff != "" {
				t.Errorf("Data mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRspData, ex.RspData); diff != "" {
				t.Errorf("RspData mismatch (-want +got):\n%s", diff)
			}
			if ex.SW != tt.wantSW {
				t.Errorf("SW: got %s, want %04X", ex.SW.Hex(), uint16(tt.wantSW))
			}
		})
	}
}

func TestExchangeFromTPDU_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"Truncated header", tlv.Hex("A0 A4 00")},
		{"Header without status word", tlv.Hex("A0 A4 00 00")},
		{"P3 without status word", tlv.Hex("A0 A4 00 00 02 3F")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExchangeFromTPDU(tt.payload); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestFrameNumber(t *testing.T) {
	buf := datagram(TypeSIM, SubTypeAPDU, nil)
	buf[8], buf[9], buf[10], buf[11] = 0x00, 0x00, 0x01, 0x02
	if got := FrameNumber(buf); got != 0x0102 {
		t.Errorf("FrameNumber: got %d, want %d", got, 0x0102)
	}
	if got := FrameNumber(nil); got != 0 {
		t.Errorf("FrameNumber of empty buffer: got %d, want 0", got)
	}
}
